package messaging

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/clustering"
	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/spatial"
)

func plainNode(id model.NodeId, x, y float64) *model.Node {
	return &model.Node{ID: id, Position: model.Point{X: x, Y: y}, Speed: 30}
}

func TestDirectRadioDispatchAppliesCollisionEffect(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	require.NoError(t, store.Insert(plainNode("sender", 0, 0)))
	require.NoError(t, store.Insert(plainNode("near", 10, 0)))
	require.NoError(t, store.Insert(plainNode("far", 10000, 0)))

	idx := spatial.New(cfg.RadioRangeR)
	idx.Rebuild(map[model.NodeId]model.Point{
		"sender": {X: 0, Y: 0},
		"near":   {X: 10, Y: 0},
		"far":    {X: 10000, Y: 0},
	})

	eng := clustering.New(cfg)
	fabric := New(cfg)
	log := events.NewLog()

	msg := model.Message{Kind: model.CollisionWarning, SenderID: "sender", Scope: model.DirectRadio}
	fabric.Dispatch(1, []model.Message{msg}, store, idx, eng, log)

	near, _ := store.Get("near")
	require.InDelta(t, 0.7*30, near.Speed, 1e-9)
	far, _ := store.Get("far")
	require.InDelta(t, 30, far.Speed, 1e-9)
}

// buildTwoClusterTopology wires up two 2-node clusters whose boundary nodes
// are within radio range of each other, for InterCluster dispatch tests.
func buildTwoClusterTopology(t *testing.T) (*nodestore.Store, *clustering.Engine, *spatial.Index) {
	t.Helper()
	cfg := config.DefaultConfig()
	store := nodestore.New()

	e := plainNode("E", 0, 0) // emergency sender in C1
	e.EmergencyClass = true
	l1 := plainNode("L1", 10, 0) // leader/boundary of C1
	l2 := plainNode("L2", 10+cfg.RadioRangeR-1, 0) // leader/boundary of C2, just within R of L1
	x := plainNode("X", 10+cfg.RadioRangeR-1+10, 0) // member of C2

	for _, n := range []*model.Node{e, l1, l2, x} {
		require.NoError(t, store.Insert(n))
	}

	c1 := model.NewCluster("C1", 0)
	c1.Members["E"] = struct{}{}
	c1.Members["L1"] = struct{}{}
	c1.LeaderID = "L1"
	c1.BoundaryMap = map[model.ClusterId]model.NodeId{"C2": "L1"}
	store.SetClusterLinkage("E", clusterIDPtr("C1"), model.RoleMember)
	store.SetClusterLinkage("L1", clusterIDPtr("C1"), model.RoleLeader)

	c2 := model.NewCluster("C2", 0)
	c2.Members["L2"] = struct{}{}
	c2.Members["X"] = struct{}{}
	c2.LeaderID = "L2"
	c2.BoundaryMap = map[model.ClusterId]model.NodeId{"C1": "L2"}
	store.SetClusterLinkage("L2", clusterIDPtr("C2"), model.RoleLeader)
	store.SetClusterLinkage("X", clusterIDPtr("C2"), model.RoleMember)

	eng := clustering.New(cfg)
	eng.Seed([]*model.Cluster{c1, c2})

	idx := spatial.New(cfg.RadioRangeR)
	positions := map[model.NodeId]model.Point{}
	for _, n := range store.All() {
		positions[n.ID] = n.Position
	}
	idx.Rebuild(positions)

	return store, eng, idx
}

func clusterIDPtr(id model.ClusterId) *model.ClusterId { return &id }

// TestCrossClusterEmergencyBroadcastS6 grounds scenario S6: an emergency
// broadcast from E in C1 reaches both its own cluster's leader (IntraCluster)
// and, via the boundary bridge, a member of the neighboring cluster C2
// (InterCluster), slowing both non-emergency receivers.
func TestCrossClusterEmergencyBroadcastS6(t *testing.T) {
	store, eng, idx := buildTwoClusterTopology(t)
	cfg := config.DefaultConfig()
	fabric := New(cfg)
	log := events.NewLog()

	intra := model.Message{Kind: model.EmergencyAlert, SenderID: "E", Scope: model.IntraCluster}
	inter := model.Message{Kind: model.EmergencyAlert, SenderID: "E", Scope: model.InterCluster}
	fabric.Dispatch(1, []model.Message{intra, inter}, store, idx, eng, log)

	l1, _ := store.Get("L1")
	require.InDelta(t, 0.5*30, l1.Speed, 1e-9)

	x, _ := store.Get("X")
	require.InDelta(t, 0.5*30, x.Speed, 1e-9)
}

func TestUndeliverableMessageDroppedSilently(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	require.NoError(t, store.Insert(plainNode("sender", 0, 0)))
	idx := spatial.New(cfg.RadioRangeR)
	idx.Rebuild(map[model.NodeId]model.Point{"sender": {X: 0, Y: 0}})

	eng := clustering.New(cfg)
	fabric := New(cfg)
	log := events.NewLog()

	msg := model.Message{Kind: model.CollisionWarning, SenderID: "ghost", Scope: model.DirectRadio}
	fabric.Dispatch(1, []model.Message{msg}, store, idx, eng, log)
	require.Equal(t, 0, fabric.UndeliverableCount())
}
