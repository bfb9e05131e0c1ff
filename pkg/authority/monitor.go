// Package authority implements the Authority / PoA Monitor: a
// periodic, per-cluster vote among high-trust nodes to flag suspected
// malicious peers. Grounded on consensus_engine.py's PoAConsensus voting
// shape and pkg/injection/verification/verify.go's boolean-accumulation
// pattern (teacher), repointed from infra-health checks to suspicion scoring
// against the Node Store.
package authority

import (
	"math"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/failure"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/trust"
)

const isolatedAuthorityRadius = 300

// Monitor runs the per-cluster and isolated-node suspicion vote.
type Monitor struct {
	cfg     *config.Config
	failure *failure.Detector
}

// New creates an Authority Monitor bound to cfg and the Failure Detector
// (used to force leader-failure when a flagged node held leadership).
func New(cfg *config.Config, failureDetector *failure.Detector) *Monitor {
	return &Monitor{cfg: cfg, failure: failureDetector}
}

// IsAuthority reports whether n qualifies as an authority: trust_score >
// 0.80 and not flagged.
func IsAuthority(n *model.Node) bool {
	return n.TrustScore > 0.80 && !n.IsFlaggedMalicious
}

// suspicion computes the suspicion score for a non-authority member m.
func (mon *Monitor) suspicion(m *model.Node) float64 {
	var s float64
	if m.TrustScore < 0.4 {
		s += 0.3
	}
	if trust.MaliciousEvidenceObservable(m) {
		s += 0.5
	}
	if m.Speed > 75 {
		s += 0.2
	}
	if m.MessageCount > 100 && m.TrustScore < 0.5 {
		s += 0.2
	}
	return s
}

// flagThreshold returns ⌈poa_flag_fraction·|A|⌉, minimum 1.
func flagThreshold(authorityCount int, flagFraction float64) int {
	t := int(math.Ceil(flagFraction * float64(authorityCount)))
	if t < 1 {
		t = 1
	}
	return t
}

// RunCluster runs the per-cluster vote for a single cluster: collects
// its authorities (falling back to authorities within isolatedAuthorityRadius
// of a suspect when the cluster has none), scores every non-authority
// member, and flags members that cross the vote threshold.
func (mon *Monitor) RunCluster(tick uint64, c *model.Cluster, store *nodestore.Store, log *events.Log) {
	var clusterAuthorities []*model.Node
	for _, id := range c.MemberIDs() {
		n, ok := store.Get(id)
		if !ok {
			continue
		}
		if IsAuthority(n) {
			clusterAuthorities = append(clusterAuthorities, n)
		}
	}

	for _, id := range c.MemberIDs() {
		m, ok := store.Get(id)
		if !ok || IsAuthority(m) {
			continue
		}
		authorities := clusterAuthorities
		if len(authorities) == 0 {
			authorities = mon.nearbyAuthorities(m, store)
		}
		mon.evaluate(tick, c, m, authorities, store, log)
	}
}

// RunIsolated evaluates every node with no cluster against nearby
// authorities — the closing rule for nodes that never joined a cluster.
func (mon *Monitor) RunIsolated(tick uint64, store *nodestore.Store, log *events.Log) {
	for _, n := range store.All() {
		if n.InCluster() || IsAuthority(n) {
			continue
		}
		authorities := mon.nearbyAuthorities(n, store)
		mon.evaluate(tick, nil, n, authorities, store, log)
	}
}

func (mon *Monitor) nearbyAuthorities(m *model.Node, store *nodestore.Store) []*model.Node {
	var out []*model.Node
	for _, n := range store.All() {
		if n.ID == m.ID || !IsAuthority(n) {
			continue
		}
		if n.Position.Distance(m.Position) <= isolatedAuthorityRadius {
			out = append(out, n)
		}
	}
	return out
}

func (mon *Monitor) evaluate(tick uint64, c *model.Cluster, m *model.Node, authorities []*model.Node, store *nodestore.Store, log *events.Log) {
	if len(authorities) == 0 {
		return
	}
	if mon.suspicion(m) < 0.5 {
		return
	}

	// Every authority in the set casts a flag vote.
	flagCount := len(authorities)
	threshold := flagThreshold(len(authorities), mon.cfg.PoAFlagFraction)
	if flagCount < threshold {
		return
	}

	wasLeader := m.Role == model.RoleLeader
	store.FlagMalicious(m.ID, 0.7)
	var cid model.ClusterId
	if c != nil {
		cid = c.ID
	}
	log.RecordNodeFlagged(tick, m.ID, cid)

	if wasLeader && c != nil && mon.failure != nil {
		mon.failure.CheckAndRecover(tick, c, store, log)
	}
}
