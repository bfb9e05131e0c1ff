package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

func convoy(n int) []InitialNode {
	out := make([]InitialNode, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, InitialNode{
			ID:           model.NodeId("v" + string(rune('0'+i))),
			Position:     model.Point{X: float64(i) * 20, Y: 0},
			Speed:        25,
			Heading:      0,
			Authenticity: 1,
			Cooperation:  1,
		})
	}
	return out
}

// TestAdvanceFormsConvoyClusterS1 grounds scenario S1: five mutually
// compatible vehicles within radio range converge into one cluster after
// the first tick.
func TestAdvanceFormsConvoyClusterS1(t *testing.T) {
	cfg := config.DefaultConfig()
	sim, err := New(cfg, convoy(5), nil)
	require.NoError(t, err)

	snap, err := sim.Advance(1, nil)
	require.NoError(t, err)
	require.Len(t, snap.Clusters, 1)
	require.Equal(t, 5, len(snap.Clusters[0].Members))
	require.NotEmpty(t, snap.Clusters[0].LeaderID)
}

// TestAdvanceIsDeterministicAcrossIdenticalRuns checks the determinism
// property: the same seed/config/initial population produces bit-identical
// snapshots tick over tick.
func TestAdvanceIsDeterministicAcrossIdenticalRuns(t *testing.T) {
	cfg := config.DefaultConfig()

	run := func() Snapshot {
		sim, err := New(cfg, convoy(5), nil)
		require.NoError(t, err)
		var last Snapshot
		for tick := uint64(1); tick <= 3; tick++ {
			last, err = sim.Advance(tick, nil)
			require.NoError(t, err)
		}
		return last
	}

	a := run()
	b := run()
	require.Equal(t, a, b)
}

func TestAdvanceRejectsMobilityForUnknownNode(t *testing.T) {
	cfg := config.DefaultConfig()
	sim, err := New(cfg, convoy(2), nil)
	require.NoError(t, err)

	_, err = sim.Advance(1, []NodeInput{{ID: "ghost", Position: model.Point{}}})
	require.Error(t, err)
	require.False(t, sim.Halted())
}

// TestLeaderDepartureTriggersCoLeaderPromotionS2 grounds scenario S2: a
// cluster's leader moves out of range and the co-leader is promoted without
// dissolving the cluster.
func TestLeaderDepartureTriggersCoLeaderPromotionS2(t *testing.T) {
	cfg := config.DefaultConfig()
	sim, err := New(cfg, convoy(5), nil)
	require.NoError(t, err)

	snap, err := sim.Advance(1, nil)
	require.NoError(t, err)
	require.Len(t, snap.Clusters, 1)
	leaderID := snap.Clusters[0].LeaderID
	require.NotNil(t, snap.Clusters[0].CoLeaderID)
	coLeaderID := *snap.Clusters[0].CoLeaderID

	// Move the leader far away; everyone else stays put.
	var inputs []NodeInput
	for _, row := range snap.Nodes {
		pos := row.Position
		if row.ID == leaderID {
			pos = model.Point{X: 100000, Y: 100000}
		}
		inputs = append(inputs, NodeInput{ID: row.ID, Position: pos, Speed: row.Speed, Heading: row.Heading})
	}

	snap2, err := sim.Advance(2, inputs)
	require.NoError(t, err)
	require.Len(t, snap2.Clusters, 1)
	require.Equal(t, coLeaderID, snap2.Clusters[0].LeaderID)
}
