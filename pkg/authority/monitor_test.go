package authority

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/election"
	"github.com/jihwankim/vanet-sim/pkg/failure"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/trust"
)

func authorityNode(id model.NodeId, trustScore float64) *model.Node {
	return &model.Node{
		ID:         id,
		Position:   model.Point{X: 0, Y: 0},
		TrustScore: trustScore,
	}
}

// TestPoAMajorityFlagS4 grounds scenario S4: 3 authorities at trust 0.95, one
// suspect at trust 0.30/speed 80/message_count 150 — after one PoA interval
// the suspect is flagged with trust_score = 0.7*0.30 = 0.21.
func TestPoAMajorityFlagS4(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()

	ids := []model.NodeId{"a0", "a1", "a2"}
	for _, id := range ids {
		require.NoError(t, store.Insert(authorityNode(id, 0.95)))
	}

	suspect := authorityNode("m0", 0.30)
	suspect.Speed = 80
	suspect.MessageCount = 150
	require.NoError(t, store.Insert(suspect))

	c := model.NewCluster("c1", 0)
	for _, id := range append(ids, "m0") {
		c.Members[id] = struct{}{}
	}

	trustEng := trust.New(cfg)
	coord := election.New(cfg, trustEng)
	det := failure.New(cfg, coord)
	mon := New(cfg, det)
	log := events.NewLog()

	mon.RunCluster(1, c, store, log)

	flagged, ok := store.Get("m0")
	require.True(t, ok)
	require.True(t, flagged.IsFlaggedMalicious)
	require.InDelta(t, 0.21, flagged.TrustScore, 1e-9)

	found := false
	for _, e := range log.Entries() {
		if e.Kind == events.NodeFlagged {
			found = true
		}
	}
	require.True(t, found)
}

func TestBelowThresholdSuspicionNotFlagged(t *testing.T) {
	cfg := config.DefaultConfig()
	store := nodestore.New()
	require.NoError(t, store.Insert(authorityNode("a0", 0.95)))

	calm := authorityNode("m0", 0.6)
	calm.Authenticity = 1
	calm.Cooperation = 1
	require.NoError(t, store.Insert(calm))

	c := model.NewCluster("c1", 0)
	c.Members["a0"] = struct{}{}
	c.Members["m0"] = struct{}{}

	trustEng := trust.New(cfg)
	coord := election.New(cfg, trustEng)
	det := failure.New(cfg, coord)
	mon := New(cfg, det)
	log := events.NewLog()

	mon.RunCluster(1, c, store, log)

	n, _ := store.Get("m0")
	require.False(t, n.IsFlaggedMalicious)
}
