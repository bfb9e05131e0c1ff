// Package election implements the Election Coordinator (leader and
// co-leader election); relay and boundary election live in pkg/failure.
// Grounded on
// trust_aware_cluster_manager.py's composite-based head election and
// consensus_engine.py's PoAConsensus voting shape, adapted to a
// weighted-majority protocol.
package election

import (
	"sort"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/trust"
)

// Coordinator runs elections against a Cluster owned elsewhere; it mutates
// node roles only through the node store's capability handles and cluster
// fields directly (the clustering engine hands it a live *model.Cluster for
// the duration of one tick's election — the coordinator does not retain the
// pointer across ticks).
type Coordinator struct {
	cfg    *config.Config
	trust  *trust.Engine
}

// New creates an Election Coordinator bound to cfg and a shared Trust Engine.
func New(cfg *config.Config, trustEngine *trust.Engine) *Coordinator {
	return &Coordinator{cfg: cfg, trust: trustEngine}
}

// candidate is a member undergoing election ranking.
type candidate struct {
	id        model.NodeId
	trustW    float64
	composite float64
}

// Candidates returns the candidate set for cluster c: trust_score >=
// 0.5, not flagged, not sleeper-flagged, not banned.
func Candidates(c *model.Cluster, store *nodestore.Store, currentTick uint64) []model.NodeId {
	var out []model.NodeId
	for _, id := range c.MemberIDs() {
		n, ok := store.Get(id)
		if !ok {
			continue
		}
		if n.TrustScore < 0.5 || n.IsFlaggedMalicious || n.IsSleeperFlagged || n.IsBanned(currentTick) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (co *Coordinator) compositeInputs(n *model.Node, c *model.Cluster) trust.CompositeInputs {
	return trust.CompositeInputs{
		TimeInClusterNormalized: model.Clamp01(float64(n.TickOfLastUpdate) / 100),
		ConnectionQuality:       model.Clamp01(1 - n.Position.Distance(c.Centroid)/co.cfg.MaxClusterRadius),
		DistanceToCentroid:      n.Position.Distance(c.Centroid),
	}
}

// RunElection runs the full election atomically for cluster c. Returns
// false (and emits ClusterDegraded) if the candidate set is empty.
func (co *Coordinator) RunElection(tick uint64, c *model.Cluster, store *nodestore.Store, log *events.Log) bool {
	candIDs := Candidates(c, store, tick)
	if len(candIDs) == 0 {
		log.RecordClusterDegraded(tick, c.ID, "empty candidate set")
		return false
	}

	cands := make([]candidate, 0, len(candIDs))
	for _, id := range candIDs {
		n, _ := store.Get(id)
		cands = append(cands, candidate{id: id, trustW: n.TrustScore, composite: co.trust.CompositeScore(n, co.compositeInputs(n, c))})
	}

	winner := weightedMajority(candIDs, cands)
	oldLeader := c.LeaderID

	c.LeaderID = winner
	store.SetRole(winner, model.RoleLeader)
	if oldLeader != "" && oldLeader != winner {
		store.SetRole(oldLeader, model.RoleMember)
	}
	log.RecordLeaderElected(tick, c.ID, oldLeader, winner)

	co.electCoLeader(tick, c, store, cands, winner, log)
	return true
}

// ElectCoLeaderOnly re-runs just the co-leader ranking against
// the cluster's current leader, without disturbing the leader itself. Used
// by the Failure Detector's O(1) co-leader-promotion succession path, which
// schedules a co-leader election for the same tick rather than a full
// re-election.
func (co *Coordinator) ElectCoLeaderOnly(tick uint64, c *model.Cluster, store *nodestore.Store, log *events.Log) {
	candIDs := Candidates(c, store, tick)
	cands := make([]candidate, 0, len(candIDs))
	for _, id := range candIDs {
		n, _ := store.Get(id)
		cands = append(cands, candidate{id: id, trustW: n.TrustScore, composite: co.trust.CompositeScore(n, co.compositeInputs(n, c))})
	}
	co.electCoLeader(tick, c, store, cands, c.LeaderID, log)
}

// weightedMajority implements the weighted-majority vote: every candidate votes for its
// highest-composite candidate (itself allowed); vote weight is the voter's
// own trust_score normalized so weights sum to 1; a candidate with >0.50
// weighted votes wins, else the highest composite wins with NodeId tie-break.
func weightedMajority(candIDs []model.NodeId, cands []candidate) model.NodeId {
	byID := make(map[model.NodeId]candidate, len(cands))
	for _, c := range cands {
		byID[c.id] = c
	}

	var totalTrust float64
	for _, c := range cands {
		totalTrust += c.trustW
	}

	votes := make(map[model.NodeId]float64)
	for _, voter := range cands {
		// Each voter picks its highest-composite candidate (ties broken by
		// NodeId for determinism).
		best := voter.id
		bestComposite := -1.0
		for _, id := range candIDs {
			cc := byID[id]
			if cc.composite > bestComposite || (cc.composite == bestComposite && id < best) {
				bestComposite = cc.composite
				best = id
			}
		}
		weight := 0.0
		if totalTrust > 0 {
			weight = voter.trustW / totalTrust
		}
		votes[best] += weight
	}

	var majorityWinner model.NodeId
	bestVote := -1.0
	for _, id := range candIDs {
		if votes[id] > 0.50 && votes[id] > bestVote {
			bestVote = votes[id]
			majorityWinner = id
		}
	}
	if majorityWinner != "" {
		return majorityWinner
	}

	// Fallback: highest composite, tie-break by NodeId.
	sorted := append([]candidate(nil), cands...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].composite != sorted[j].composite {
			return sorted[i].composite > sorted[j].composite
		}
		return sorted[i].id < sorted[j].id
	})
	return sorted[0].id
}

func (co *Coordinator) electCoLeader(tick uint64, c *model.Cluster, store *nodestore.Store, cands []candidate, leader model.NodeId, log *events.Log) {
	var remaining []candidate
	for _, cc := range cands {
		if cc.id != leader {
			remaining = append(remaining, cc)
		}
	}
	if c.CoLeaderID != nil {
		store.SetRole(*c.CoLeaderID, model.RoleMember)
		c.CoLeaderID = nil
	}
	if len(remaining) == 0 {
		return
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].composite != remaining[j].composite {
			return remaining[i].composite > remaining[j].composite
		}
		return remaining[i].id < remaining[j].id
	})
	co2 := remaining[0].id
	c.CoLeaderID = &co2
	store.SetRole(co2, model.RoleCoLeader)
	log.RecordCoLeaderPromoted(tick, c.ID, co2)
}
