// Package failure implements the Failure Detector / Succession, Relay
// Election, and Boundary Election duties. Grounded on
// pkg/monitoring/detector/failure_detector.go's Evaluate/Results shape
// (teacher), repointed from Prometheus-threshold checks to in-memory
// leader-health checks against the Node Store and Clustering Engine.
package failure

import (
	"sort"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/election"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Detector runs the leader-health check and, on failure, succession.
type Detector struct {
	cfg   *config.Config
	elect *election.Coordinator
}

// New creates a Failure Detector bound to cfg and the shared Election Coordinator.
func New(cfg *config.Config, elect *election.Coordinator) *Detector {
	return &Detector{cfg: cfg, elect: elect}
}

// LeaderHealthy reports whether a cluster's leader passes all three health
// checks: still present, trust above collapse threshold and not flagged,
// and within MAX_CLUSTER_RADIUS of the centroid.
func (d *Detector) LeaderHealthy(c *model.Cluster, store *nodestore.Store) bool {
	leader, ok := store.Get(c.LeaderID)
	if !ok {
		return false
	}
	if leader.TrustScore < 0.4 || leader.IsFlaggedMalicious {
		return false
	}
	if leader.Position.Distance(c.Centroid) > d.cfg.MaxClusterRadius {
		return false
	}
	return true
}

// CheckAndRecover runs the leader-failure check for a single cluster
// and performs succession if needed: promote co-leader in O(1) if it still
// passes the candidate filter, otherwise run a full election. Returns true
// if a failure was detected (and handled) this call.
func (d *Detector) CheckAndRecover(tick uint64, c *model.Cluster, store *nodestore.Store, log *events.Log) bool {
	if c.Size() == 0 {
		return false
	}
	if d.LeaderHealthy(c, store) {
		return false
	}

	oldLeader := c.LeaderID

	if c.CoLeaderID != nil {
		coCandidates := election.Candidates(c, store, tick)
		promotable := contains(coCandidates, *c.CoLeaderID)
		if promotable {
			newLeader := *c.CoLeaderID
			c.LeaderID = newLeader
			c.CoLeaderID = nil
			store.SetRole(newLeader, model.RoleLeader)
			if oldLeader != "" {
				store.SetClusterLinkage(oldLeader, nil, model.RoleUnassigned)
				delete(c.Members, oldLeader)
			}
			log.RecordLeaderElected(tick, c.ID, oldLeader, newLeader)
			// O(1) promotion: a full re-election is not run here. A
			// co-leader election for the newly-promoted leader is run in
			// the same pass rather than deferred, since the coordinator's
			// ranking is already available this tick.
			d.elect.ElectCoLeaderOnly(tick, c, store, log)
			return true
		}
	}

	if oldLeader != "" {
		store.SetClusterLinkage(oldLeader, nil, model.RoleUnassigned)
		delete(c.Members, oldLeader)
	}
	d.elect.RunElection(tick, c, store, log)
	return true
}

func contains(ids []model.NodeId, target model.NodeId) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// RelayElection implements relay election: partitions members into
// in-range/out-of-range of the leader, and for each out-of-range member
// picks the in-range helper maximizing
// 0.35*trust + 0.25*centrality + 0.20*stability + 0.20*coverage.
func (d *Detector) RelayElection(c *model.Cluster, store *nodestore.Store) {
	leader, ok := store.Get(c.LeaderID)
	if !ok {
		return
	}

	var inRange, outOfRange []model.NodeId
	for _, id := range c.MemberIDs() {
		n, ok := store.Get(id)
		if !ok {
			continue
		}
		if n.Position.Distance(leader.Position) <= d.cfg.RadioRangeR {
			inRange = append(inRange, id)
		} else {
			outOfRange = append(outOfRange, id)
		}
	}

	for id := range c.RelaySet {
		store.SetRelay(id, false)
	}
	c.RelaySet = make(map[model.NodeId]struct{})

	if len(outOfRange) == 0 || len(inRange) == 0 {
		return
	}

	for _, outID := range outOfRange {
		outNode, _ := store.Get(outID)
		var best model.NodeId
		bestScore := -1.0
		for _, helperID := range inRange {
			helper, _ := store.Get(helperID)
			if helper.Position.Distance(outNode.Position) > d.cfg.RadioRangeR {
				continue
			}
			centrality := model.Clamp01(1 - helper.Position.Distance(c.Centroid)/d.cfg.MaxClusterRadius)
			stability := model.Clamp01(float64(helper.TickOfLastUpdate) / 100)
			coverage := coverageScore(helper, outOfRange, store, d.cfg.RadioRangeR)
			score := 0.35*helper.TrustScore + 0.25*centrality + 0.20*stability + 0.20*coverage
			if score > bestScore || (score == bestScore && helperID < best) {
				bestScore = score
				best = helperID
			}
		}
		if best != "" {
			c.RelaySet[best] = struct{}{}
			store.SetRelay(best, true)
		}
	}
}

func coverageScore(helper *model.Node, outOfRange []model.NodeId, store *nodestore.Store, radioRangeR float64) float64 {
	if len(outOfRange) == 0 {
		return 0
	}
	reachable := 0
	for _, id := range outOfRange {
		n, ok := store.Get(id)
		if !ok {
			continue
		}
		if n.Position.Distance(helper.Position) <= radioRangeR {
			reachable++
		}
	}
	return float64(reachable) / float64(len(outOfRange))
}

// BoundaryElection implements boundary election against the set of
// neighboring clusters (those within INTER_CLUSTER_DETECTION of c's
// centroid).
func (d *Detector) BoundaryElection(c *model.Cluster, allClusters []*model.Cluster, store *nodestore.Store) {
	c.BoundaryMap = make(map[model.ClusterId]model.NodeId)

	var neighbors []*model.Cluster
	for _, other := range allClusters {
		if other.ID == c.ID {
			continue
		}
		if other.Centroid.Distance(c.Centroid) <= d.cfg.InterClusterDetection {
			neighbors = append(neighbors, other)
		}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].ID < neighbors[j].ID })

	for id := range previousBoundaries(c) {
		store.SetBoundary(id, false)
	}

	for _, neighbor := range neighbors {
		var best model.NodeId
		bestScore := -1.0
		for _, memberID := range c.MemberIDs() {
			n, ok := store.Get(memberID)
			if !ok {
				continue
			}
			proximity := model.Clamp01(1 - n.Position.Distance(neighbor.Centroid)/d.cfg.InterClusterDetection)
			connectivity := connectivityWithinCluster(n, c, store, d.cfg.RadioRangeR)
			stability := model.Clamp01(float64(n.TickOfLastUpdate) / 100)
			score := 0.40*proximity + 0.30*n.TrustScore + 0.20*connectivity + 0.10*stability
			if score > bestScore || (score == bestScore && memberID < best) {
				bestScore = score
				best = memberID
			}
		}
		if best != "" {
			c.BoundaryMap[neighbor.ID] = best
			store.SetBoundary(best, true)
		}
	}
}

func previousBoundaries(c *model.Cluster) map[model.NodeId]struct{} {
	out := make(map[model.NodeId]struct{})
	for _, id := range c.BoundaryMap {
		out[id] = struct{}{}
	}
	return out
}

func connectivityWithinCluster(n *model.Node, c *model.Cluster, store *nodestore.Store, radioRangeR float64) float64 {
	if c.Size() <= 1 {
		return 0
	}
	reachable := 0
	for _, id := range c.MemberIDs() {
		if id == n.ID {
			continue
		}
		m, ok := store.Get(id)
		if !ok {
			continue
		}
		if m.Position.Distance(n.Position) <= radioRangeR {
			reachable++
		}
	}
	return float64(reachable) / float64(c.Size()-1)
}
