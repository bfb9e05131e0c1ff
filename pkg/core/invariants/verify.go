// Package invariants implements the assertion-based Verifier enforcing the
// core's universal invariants. A violation is a StateInvariantRegression: it
// is raised as a typed panic, caught by a single recover() in the simulator's
// tick loop and converted into a fatal event before the simulator halts.
// Grounded on pkg/injection/verification/verify.go's VerificationResult /
// "collect booleans + details, return a report" shape.
package invariants

import (
	"fmt"

	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Violation is the panic value raised when a StateInvariantRegression is
// detected; never a normal error return — tick advance has no
// caller-visible error for this class of failure.
type Violation struct {
	Tick   uint64
	Detail string
}

func (v Violation) Error() string {
	return fmt.Sprintf("state invariant regression at tick %d: %s", v.Tick, v.Detail)
}

// NodeView and ClusterView are the minimal read-only shapes the Verifier
// needs; satisfied by nodestore.Store and clustering.Engine without either
// package importing this one.
type NodeView interface {
	All() []*model.Node
}

type ClusterView interface {
	Clusters() []*model.Cluster
}

// Result is the outcome of one Verify pass. Verify panics with a Violation
// on the first failed check, so a returned Result is always clean.
type Result struct {
	Clean   bool
	Details []string
}

// VerifyClusterRadius checks invariant 3 (every member within
// MAX_CLUSTER_RADIUS of its cluster's centroid) in isolation. It is the only
// check safe to run immediately after Reconcile: at that point in the tick
// leaders/relays have not been (re)elected yet, so invariants 2 and 4 would
// see transient, not-yet-resolved state (a freshly formed cluster has no
// LeaderID, a cluster whose leader just detached still names it) and panic
// on a condition the Election Coordinator / Failure Detector are about to
// fix this same tick. Invariant 3 has no such dependency: centroid and
// membership are already final once Reconcile returns.
func VerifyClusterRadius(tick uint64, nodes NodeView, clusters ClusterView, maxClusterRadius float64) Result {
	for _, c := range clusters.Clusters() {
		for _, id := range c.MemberIDs() {
			n, ok := lookupNode(nodes, id)
			if !ok {
				continue
			}
			if n.Position.Distance(c.Centroid) > maxClusterRadius+1e-6 {
				panic(Violation{Tick: tick, Detail: fmt.Sprintf("member %s of cluster %s exceeds max cluster radius", id, c.ID)})
			}
		}
	}
	return Result{Clean: true}
}

// Verify checks invariants 1-6 and panics with a Violation on the first
// failure found (StateInvariantRegression aborts the tick immediately; it
// is not a recoverable, accumulate-and-report condition like the
// ClusterDegraded/MessageUndeliverable classes). Callers must run this only
// after election and failure detection have resolved leader/relay state for
// the tick — see VerifyClusterRadius for the one check safe to run earlier.
func Verify(tick uint64, nodes NodeView, clusters ClusterView, radioRangeR, maxClusterRadius float64) Result {
	clusterByID := make(map[model.ClusterId]*model.Cluster)
	for _, c := range clusters.Clusters() {
		clusterByID[c.ID] = c
	}

	// Invariant 1: bidirectional node/cluster membership.
	for _, n := range nodes.All() {
		if n.ClusterID == nil {
			continue
		}
		c, ok := clusterByID[*n.ClusterID]
		if !ok || !c.HasMember(n.ID) {
			panic(Violation{Tick: tick, Detail: fmt.Sprintf("node %s claims cluster %s but is not a member", n.ID, *n.ClusterID)})
		}
	}

	for _, c := range clusters.Clusters() {
		// Invariant 2: exactly one leader, at most one co-leader.
		if c.Size() > 0 {
			leader, ok := lookupNode(nodes, c.LeaderID)
			if !ok || leader.Role != model.RoleLeader {
				panic(Violation{Tick: tick, Detail: fmt.Sprintf("cluster %s has no valid Leader-role leader", c.ID)})
			}
			if c.CoLeaderID != nil {
				co, ok := lookupNode(nodes, *c.CoLeaderID)
				if !ok || co.Role != model.RoleCoLeader {
					panic(Violation{Tick: tick, Detail: fmt.Sprintf("cluster %s co-leader %s has wrong role", c.ID, *c.CoLeaderID)})
				}
			}
		}

		// Invariant 3: every member within MAX_CLUSTER_RADIUS of centroid.
		for _, id := range c.MemberIDs() {
			n, ok := lookupNode(nodes, id)
			if !ok {
				continue
			}
			if n.Position.Distance(c.Centroid) > maxClusterRadius+1e-6 {
				panic(Violation{Tick: tick, Detail: fmt.Sprintf("member %s of cluster %s exceeds max cluster radius", id, c.ID)})
			}
		}

		// Invariant 4: out-of-range members reachable via a relay.
		leader, ok := lookupNode(nodes, c.LeaderID)
		if ok {
			for _, id := range c.MemberIDs() {
				m, ok := lookupNode(nodes, id)
				if !ok {
					continue
				}
				if m.Position.Distance(leader.Position) <= radioRangeR {
					continue
				}
				reached := false
				for relayID := range c.RelaySet {
					r, ok := lookupNode(nodes, relayID)
					if !ok {
						continue
					}
					if m.Position.Distance(r.Position) <= radioRangeR && r.Position.Distance(leader.Position) <= radioRangeR {
						reached = true
						break
					}
				}
				if !reached {
					panic(Violation{Tick: tick, Detail: fmt.Sprintf("out-of-range member %s of cluster %s has no reachable relay", id, c.ID)})
				}
			}
		}
	}

	// Invariants 5 & 6: trust bounds, ring length.
	for _, n := range nodes.All() {
		if n.TrustScore < -1e-9 || n.TrustScore > 1+1e-9 {
			panic(Violation{Tick: tick, Detail: fmt.Sprintf("node %s trust_score out of bounds: %v", n.ID, n.TrustScore)})
		}
		if n.History.Len() > model.RingCapacity {
			panic(Violation{Tick: tick, Detail: fmt.Sprintf("node %s history ring exceeds capacity", n.ID)})
		}
	}

	return Result{Clean: true}
}

func lookupNode(nodes NodeView, id model.NodeId) (*model.Node, bool) {
	for _, n := range nodes.All() {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
