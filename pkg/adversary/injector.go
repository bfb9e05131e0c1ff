// Package adversary marks simulated nodes malicious, sleeper-agent, or
// erratic for scenario-driven tests of the trust/authority pipeline.
// Grounded on pkg/injection/injector.go's dispatch-by-type InjectFault
// switch, repointed from live container/network faults to in-memory Node
// ground-truth flags. The injected is_malicious flag stays hidden from every
// detector — only pkg/trust and pkg/authority's suspicion heuristics
// ever observe its side effects (degraded authenticity/cooperation/behavior
// consistency), never the flag itself.
package adversary

import (
	"math/rand"

	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Kind enumerates the supported adversarial behaviors.
const (
	KindMalicious = "malicious"
	KindSleeper   = "sleeper"
	KindErratic   = "erratic"
)

// Directive is one node's adversarial assignment.
type Directive struct {
	NodeID         model.NodeId
	Kind           string
	ActivateAtTick uint64
}

// Injector applies adversarial directives to the Node Store once per tick.
type Injector struct {
	directives []Directive
	rng        *rand.Rand
	activated  map[model.NodeId]bool
}

// New creates an Injector over the given directives, with its erratic-motion
// jitter seeded from seed so runs stay deterministic.
func New(directives []Directive, seed int64) *Injector {
	return &Injector{
		directives: directives,
		rng:        rand.New(rand.NewSource(seed)),
		activated:  make(map[model.NodeId]bool),
	}
}

// Apply runs every directive against the current tick's store, in directive
// order (the order a scenario file lists them, preserving determinism).
func (inj *Injector) Apply(tick uint64, store *nodestore.Store) {
	for _, d := range inj.directives {
		switch d.Kind {
		case KindMalicious:
			inj.applyMalicious(d, store)
		case KindSleeper:
			inj.applySleeper(tick, d, store)
		case KindErratic:
			inj.applyErratic(d, store)
		}
	}
}

// applyMalicious degrades a node's evidence fields immediately and
// permanently — an always-observable adversary.
func (inj *Injector) applyMalicious(d Directive, store *nodestore.Store) {
	n, ok := store.Get(d.NodeID)
	if !ok {
		return
	}
	n.IsMalicious = true
	n.Authenticity = 0.1
	n.Cooperation = 0.1
	n.BehaviorConsistency = 0.1
}

// applySleeper behaves identically to a benign node until ActivateAtTick,
// then flips to malicious in one tick, degrading the same evidence fields
// as a malicious directive. trust.Engine.SleeperSpikeCheck reacts only to
// rises in a node's composite history, not to this drop.
func (inj *Injector) applySleeper(tick uint64, d Directive, store *nodestore.Store) {
	if tick < d.ActivateAtTick {
		return
	}
	n, ok := store.Get(d.NodeID)
	if !ok {
		return
	}
	n.IsMalicious = true
	n.Authenticity = 0.1
	n.Cooperation = 0.1
	n.BehaviorConsistency = 0.1
	inj.activated[d.NodeID] = true
}

// applyErratic adds bounded per-tick noise to speed and heading and bumps
// ErraticCount, modeling a faulty-but-not-malicious sensor rather than a
// deliberate Byzantine actor.
func (inj *Injector) applyErratic(d Directive, store *nodestore.Store) {
	n, ok := store.Get(d.NodeID)
	if !ok {
		return
	}
	speedJitter := (inj.rng.Float64() - 0.5) * 20
	headingJitter := (inj.rng.Float64() - 0.5) * 1.0
	newSpeed := n.Speed + speedJitter
	if newSpeed < 0 {
		newSpeed = 0
	}
	_ = store.ApplyMobility(n.ID, n.Position, newSpeed, n.Heading+headingJitter, n.LaneHint)
	n.ErraticCount++
}
