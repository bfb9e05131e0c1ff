package spatial

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/model"
)

func TestNeighborsWithin(t *testing.T) {
	idx := New(250)
	idx.Rebuild(map[model.NodeId]model.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 20, Y: 0},
		"c": {X: 1000, Y: 1000},
	})

	got := idx.NeighborsWithin(model.Point{X: 0, Y: 0}, 250)
	require.Equal(t, []model.NodeId{"a", "b"}, got)
}

func TestCoincidentNodesNoDuplicateOrOmittedPairs(t *testing.T) {
	idx := New(250)
	idx.Rebuild(map[model.NodeId]model.Point{
		"a": {X: 5, Y: 5},
		"b": {X: 5, Y: 5},
		"c": {X: 5, Y: 5},
	})

	pairs := idx.PairsWithin(250)
	require.Len(t, pairs, 3)
	require.Contains(t, pairs, Pair{"a", "b"})
	require.Contains(t, pairs, Pair{"a", "c"})
	require.Contains(t, pairs, Pair{"b", "c"})
}

func TestPairsWithinRespectsRadius(t *testing.T) {
	idx := New(250)
	idx.Rebuild(map[model.NodeId]model.Point{
		"a": {X: 0, Y: 0},
		"b": {X: 100, Y: 0},
		"c": {X: 900, Y: 0},
	})

	pairs := idx.PairsWithin(250)
	require.Equal(t, []Pair{{"a", "b"}}, pairs)
}

func TestNeighborsAcrossCellBoundary(t *testing.T) {
	idx := New(250)
	// a and b sit in adjacent cells but within radio range of each other.
	idx.Rebuild(map[model.NodeId]model.Point{
		"a": {X: 249, Y: 0},
		"b": {X: 251, Y: 0},
	})

	got := idx.NeighborsWithin(model.Point{X: 249, Y: 0}, 10)
	require.Equal(t, []model.NodeId{"a", "b"}, got)
}
