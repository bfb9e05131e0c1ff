package election

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/trust"
)

func convoyNode(id model.NodeId, x float64) *model.Node {
	return &model.Node{
		ID:            id,
		Position:      model.Point{X: x, Y: 0},
		Speed:         25,
		Heading:       0,
		BandwidthMbps: 100,
		ProcessingGHz: 2,
		TrustScore:    0.9,
		Authenticity:  1,
		Cooperation:   1,
	}
}

// TestCentralityTiebreakS1 grounds scenario S1's leader pick: 5 nodes in a
// line with identical trust, the node closest to the centroid (index 2)
// wins on centrality/stability alone.
func TestCentralityTiebreakS1(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	ids := []model.NodeId{"n0", "n1", "n2", "n3", "n4"}
	for i, id := range ids {
		require.NoError(t, store.Insert(convoyNode(id, float64(i)*20)))
	}

	c := model.NewCluster("c1", 0)
	for _, id := range ids {
		c.Members[id] = struct{}{}
		cid := c.ID
		store.SetClusterLinkage(id, &cid, model.RoleMember)
	}
	c.Centroid = model.Point{X: 40, Y: 0}

	trustEng := trust.New(cfg)
	coord := New(cfg, trustEng)
	log := events.NewLog()

	ok := coord.RunElection(1, c, store, log)
	require.True(t, ok)
	require.Equal(t, model.NodeId("n2"), c.LeaderID)

	leader, _ := store.Get("n2")
	require.Equal(t, model.RoleLeader, leader.Role)
	require.NotNil(t, c.CoLeaderID)
}

func TestEmptyCandidateSetDegradesCluster(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	n := convoyNode("lone", 0)
	n.TrustScore = 0.1
	require.NoError(t, store.Insert(n))

	c := model.NewCluster("c1", 0)
	c.Members["lone"] = struct{}{}
	cid := c.ID
	store.SetClusterLinkage("lone", &cid, model.RoleMember)

	trustEng := trust.New(cfg)
	coord := New(cfg, trustEng)
	log := events.NewLog()

	ok := coord.RunElection(1, c, store, log)
	require.False(t, ok)

	found := false
	for _, e := range log.Entries() {
		if e.Kind == events.ClusterDegraded {
			found = true
		}
	}
	require.True(t, found)
}
