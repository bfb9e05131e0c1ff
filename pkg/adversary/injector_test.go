package adversary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

func benignNode(id model.NodeId) *model.Node {
	return &model.Node{
		ID:                  id,
		Authenticity:        1,
		Cooperation:         1,
		BehaviorConsistency: 1,
		Speed:               20,
	}
}

func TestMaliciousDirectiveDegradesEvidenceImmediately(t *testing.T) {
	store := nodestore.New()
	require.NoError(t, store.Insert(benignNode("m0")))

	inj := New([]Directive{{NodeID: "m0", Kind: KindMalicious}}, 1)
	inj.Apply(1, store)

	n, _ := store.Get("m0")
	require.True(t, n.IsMalicious)
	require.Less(t, n.Authenticity, 0.5)
}

func TestSleeperDirectiveActivatesAtTick(t *testing.T) {
	store := nodestore.New()
	require.NoError(t, store.Insert(benignNode("s0")))

	inj := New([]Directive{{NodeID: "s0", Kind: KindSleeper, ActivateAtTick: 10}}, 1)

	inj.Apply(5, store)
	n, _ := store.Get("s0")
	require.False(t, n.IsMalicious)
	require.Equal(t, 1.0, n.Authenticity)

	inj.Apply(10, store)
	n, _ = store.Get("s0")
	require.True(t, n.IsMalicious)
	require.Less(t, n.Authenticity, 0.5)
}

func TestErraticDirectiveJittersSpeedDeterministically(t *testing.T) {
	store1 := nodestore.New()
	require.NoError(t, store1.Insert(benignNode("e0")))
	inj1 := New([]Directive{{NodeID: "e0", Kind: KindErratic}}, 42)
	inj1.Apply(1, store1)
	n1, _ := store1.Get("e0")

	store2 := nodestore.New()
	require.NoError(t, store2.Insert(benignNode("e0")))
	inj2 := New([]Directive{{NodeID: "e0", Kind: KindErratic}}, 42)
	inj2.Apply(1, store2)
	n2, _ := store2.Get("e0")

	require.Equal(t, n1.Speed, n2.Speed)
	require.Equal(t, 1, n1.ErraticCount)
}
