package clustering

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/spatial"
)

func newNode(id model.NodeId, x, y, speed, heading float64) *model.Node {
	return &model.Node{
		ID:            id,
		Position:      model.Point{X: x, Y: y},
		Speed:         speed,
		Heading:       heading,
		BandwidthMbps: 100,
		ProcessingGHz: 2,
		TrustScore:    0.9,
	}
}

// TestConvoyFormationS1 grounds scenario S1: 5 nodes in a line, 20 units
// apart, all speed 25 heading 0, should converge into a single cluster of
// size 5 after reconciliation.
func TestConvoyFormationS1(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	for i, x := range []float64{0, 20, 40, 60, 80} {
		n := newNode(model.NodeId(string(rune('A'+i))), x, 0, 25, 0)
		require.NoError(t, store.Insert(n))
	}

	idx := spatial.New(cfg.RadioRangeR)
	eng := New(cfg)
	log := events.NewLog()

	positions := make(map[model.NodeId]model.Point)
	for _, n := range store.All() {
		positions[n.ID] = n.Position
	}
	idx.Rebuild(positions)

	eng.Reconcile(1, store, idx, log, 0)

	clusters := eng.Clusters()
	require.Len(t, clusters, 1)
	require.Equal(t, 5, clusters[0].Size())
}

func TestOverlapMergeS5(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	eng := New(cfg)

	c1 := model.NewCluster("c1-older", 1)
	c2 := model.NewCluster("c2-newer", 5)

	for i := 0; i < 4; i++ {
		id := model.NodeId(string(rune('A' + i)))
		n := newNode(id, float64(i)*10, 0, 20, 0)
		require.NoError(t, store.Insert(n))
		c1.Members[id] = struct{}{}
		cid := c1.ID
		store.SetClusterLinkage(id, &cid, model.RoleMember)
	}
	c1.LeaderID = "A"
	store.SetRole("A", model.RoleLeader)
	c1.Centroid = model.Point{X: 15, Y: 0}

	for i := 0; i < 4; i++ {
		id := model.NodeId(string(rune('E' + i)))
		n := newNode(id, 200+float64(i)*10, 0, 20, 0)
		require.NoError(t, store.Insert(n))
		c2.Members[id] = struct{}{}
		cid := c2.ID
		store.SetClusterLinkage(id, &cid, model.RoleMember)
	}
	c2.LeaderID = "E"
	store.SetRole("E", model.RoleLeader)
	c2.Centroid = model.Point{X: 215, Y: 0}

	eng.clusters[c1.ID] = c1
	eng.clusters[c2.ID] = c2

	log := events.NewLog()
	eng.MergeOverlapping(10, store, log)

	clusters := eng.Clusters()
	require.Len(t, clusters, 1)
	require.Equal(t, 8, clusters[0].Size())
	require.Equal(t, model.ClusterId("c1-older"), clusters[0].ID)

	eNode, _ := store.Get("E")
	require.Equal(t, model.RoleMember, eNode.Role)
}

func TestCompatiblePredicate(t *testing.T) {
	cfg := config.DefaultConfig()
	c := model.NewCluster("c1", 0)
	c.Centroid = model.Point{X: 0, Y: 0}
	c.AvgSpeed = 20
	c.AvgHeading = 0

	near := newNode("n1", 100, 0, 22, 0.1)
	require.True(t, Compatible(near, c, cfg))

	farSpeed := newNode("n2", 100, 0, 40, 0)
	require.False(t, Compatible(farSpeed, c, cfg))

	farDistance := newNode("n3", 1000, 0, 20, 0)
	require.False(t, Compatible(farDistance, c, cfg))
}
