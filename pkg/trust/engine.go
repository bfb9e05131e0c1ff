// Package trust implements the Trust Engine: historical/social trust
// maintenance, the composite election score, and the sleeper-spike detector.
// It is grounded on the original Python TrustEvaluationEngine
// (consensus_engine.py) for the weighted-metric shape, generalized to fixed
// weights and formulas used as defaults.
package trust

import (
	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Engine recomputes trust-related fields on Node records. It holds no node
// state of its own — all mutation happens on the *model.Node passed in,
// which the caller owns (the Node Store).
type Engine struct {
	cfg *config.Config
}

// New creates a Trust Engine bound to the given config.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// UpdateResource computes the static resource score from a node's bandwidth
// and processing metrics, normalized into [0,1] and averaged.
func (e *Engine) UpdateResource(n *model.Node) float64 {
	bw := normalize(n.BandwidthMbps, 50, 150)
	proc := normalize(n.ProcessingGHz, 1, 4)
	return model.Clamp01((bw + proc) / 2)
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return model.Clamp01((v - lo) / (hi - lo))
}

// RecordSample pushes a composite-trust observation into the node's ring.
func (e *Engine) RecordSample(n *model.Node, tick uint64, composite float64) {
	n.History.Push(model.Sample{Tick: tick, Value: model.Clamp01(composite)})
}

// RecomputeTrust derives historical and trust_score from the ring and the
// current social_trust.
func (e *Engine) RecomputeTrust(n *model.Node) {
	historical := n.History.Mean()
	n.TrustScore = model.Clamp01(0.5*historical + 0.5*n.SocialTrust)
}

// NeighborReport is one neighbor's contribution to social trust: its own
// trust score, how many recent interactions it has had with the subject
// node, and whether it is currently flagged malicious (flagged evaluators
// are ignored).
type NeighborReport struct {
	TrustScore      float64
	InteractionCount int
	IsFlagged       bool
}

// RecomputeSocial derives social_trust as a weighted mean of neighbor
// trust_score, weight proportional to recent interaction count and
// decayed by decayFactor (a configurable per-tick decay in (0,1]).
func (e *Engine) RecomputeSocial(n *model.Node, reports []NeighborReport, decayFactor float64) {
	if decayFactor <= 0 {
		decayFactor = 1
	}
	var weightedSum, totalWeight float64
	for _, r := range reports {
		if r.IsFlagged {
			continue
		}
		weight := float64(r.InteractionCount) * decayFactor
		if weight <= 0 {
			continue
		}
		weightedSum += weight * r.TrustScore
		totalWeight += weight
	}
	if totalWeight == 0 {
		return // no corroborating evaluators this tick; leave social_trust unchanged
	}
	n.SocialTrust = model.Clamp01(weightedSum / totalWeight)
}

// CompositeInputs are the per-node quantities needed by CompositeScore that
// are not stored directly on model.Node (they depend on cluster context).
type CompositeInputs struct {
	TimeInClusterNormalized float64 // [0,1]
	ConnectionQuality       float64 // [0,1]
	DistanceToCentroid      float64
}

// CompositeScore computes the election-ranking composite:
//
//	0.40*trust + 0.20*resource + 0.15*stability + 0.15*behavior + 0.10*centrality
func (e *Engine) CompositeScore(n *model.Node, in CompositeInputs) float64 {
	resource := e.UpdateResource(n)
	stability := model.Clamp01((in.TimeInClusterNormalized + in.ConnectionQuality) / 2)
	behavior := model.Clamp01((n.Authenticity + n.Cooperation) / 2)
	centrality := model.Clamp01(1 - in.DistanceToCentroid/e.cfg.MaxClusterRadius)

	return model.Clamp01(
		0.40*n.TrustScore +
			0.20*resource +
			0.15*stability +
			0.15*behavior +
			0.10*centrality,
	)
}

// IsAuthority reports whether a node qualifies as a high-trust authority,
// used by SleeperSpikeCheck to exempt authorities.
func IsAuthority(n *model.Node) bool {
	return n.TrustScore > 0.80 && !n.IsFlaggedMalicious
}

// SleeperSpikeCheck evaluates the sleeper_spike? predicate and, if it
// fires, applies the prescribed penalty in place. Returns true iff the spike
// was detected (and thus the penalty applied) this call.
func (e *Engine) SleeperSpikeCheck(n *model.Node, currentTick uint64) bool {
	if IsAuthority(n) {
		return false
	}
	if !n.History.SleeperSpike(e.cfg.SleeperWindowTicks, e.cfg.SleeperSpikeThreshold) {
		return false
	}
	n.TrustScore = model.Clamp01(0.5 * n.TrustScore)
	n.IsSleeperFlagged = true
	n.ElectionBannedUntil = currentTick + e.cfg.BanDuration
	return true
}

// MaliciousEvidenceScore averages three sub-indicators (authenticity,
// cooperation and behavior consistency, each counted as bad below 0.5),
// standing in for the detectors the original TrustEvaluationEngine uses to
// decide whether "is_malicious evidence is observable" (consensus_engine.py's
// location-spoofing / message-tampering / timing-attack /
// inconsistent-behavior detectors). The Go core keeps the averaged
// evaluation so the +0.5 suspicion term is grounded on the same evidence mix
// as the original, not a new heuristic.
func MaliciousEvidenceScore(n *model.Node) float64 {
	authenticityBad := 0.0
	if n.Authenticity < 0.5 {
		authenticityBad = 1.0
	}
	cooperationBad := 0.0
	if n.Cooperation < 0.5 {
		cooperationBad = 1.0
	}
	consistencyBad := 0.0
	if n.BehaviorConsistency < 0.5 {
		consistencyBad = 1.0
	}
	return (authenticityBad + cooperationBad + consistencyBad) / 3
}

// MaliciousEvidenceObservable applies a 0.5 threshold to
// MaliciousEvidenceScore: at least two of authenticity, cooperation and
// behavior consistency below 0.5 count as observable evidence.
func MaliciousEvidenceObservable(n *model.Node) bool {
	return MaliciousEvidenceScore(n) >= 0.5
}

// Statistics is the aggregate read-only trust report supplementing the
// original's get_trust_statistics, exposed for observability only.
type Statistics struct {
	Count          int
	MeanTrust      float64
	MinTrust       float64
	MaxTrust       float64
	FlaggedCount   int
	SleeperFlagged int
}

// ComputeStatistics summarizes trust across the given nodes.
func ComputeStatistics(nodes []*model.Node) Statistics {
	if len(nodes) == 0 {
		return Statistics{}
	}
	s := Statistics{Count: len(nodes), MinTrust: 1, MaxTrust: 0}
	var sum float64
	for _, n := range nodes {
		sum += n.TrustScore
		if n.TrustScore < s.MinTrust {
			s.MinTrust = n.TrustScore
		}
		if n.TrustScore > s.MaxTrust {
			s.MaxTrust = n.TrustScore
		}
		if n.IsFlaggedMalicious {
			s.FlaggedCount++
		}
		if n.IsSleeperFlagged {
			s.SleeperFlagged++
		}
	}
	s.MeanTrust = sum / float64(len(nodes))
	return s
}
