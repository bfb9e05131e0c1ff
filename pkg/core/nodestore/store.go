// Package nodestore is the sole owner of Node records and offers narrow
// mutator methods for the changes other components make. Get and All return
// live *model.Node pointers, not copies, and nothing prevents a caller from
// writing fields through them: the Trust Engine and the adversary injector
// do so directly.
package nodestore

import (
	"fmt"
	"math"
	"sort"

	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Store owns the canonical Node records for the simulation.
type Store struct {
	nodes map[model.NodeId]*model.Node
}

// New creates an empty store.
func New() *Store {
	return &Store{nodes: make(map[model.NodeId]*model.Node)}
}

// Insert adds a new node, rejecting NaN coordinates, negative speed, and
// duplicate ids as an InputInvariantViolation — these fail fast at the
// boundary and never reach internals.
func (s *Store) Insert(n *model.Node) error {
	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("input invariant violation: duplicate node id %q", n.ID)
	}
	if err := validateKinematics(n.Position, n.Speed); err != nil {
		return err
	}
	if n.CachedView == nil {
		n.CachedView = make(map[model.NodeId]model.PeerView)
	}
	s.nodes[n.ID] = n
	return nil
}

func validateKinematics(p model.Point, speed float64) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return fmt.Errorf("input invariant violation: NaN coordinate")
	}
	if speed < 0 {
		return fmt.Errorf("input invariant violation: negative speed %v", speed)
	}
	return nil
}

// Get returns the node for id, or false if absent (e.g. removed mid-run).
func (s *Store) Get(id model.NodeId) (*model.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// IDs returns all node ids in deterministic (lexicographic) order.
func (s *Store) IDs() []model.NodeId {
	ids := make([]model.NodeId, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns every node in deterministic id order. Callers must not mutate
// fields directly outside the tick-phase contract; this is a convenience for
// read-mostly iteration within the owning phases.
func (s *Store) All() []*model.Node {
	ids := s.IDs()
	out := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}
	return out
}

// Len returns the number of tracked nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Remove deletes a node (mid-run churn tolerance).
func (s *Store) Remove(id model.NodeId) {
	delete(s.nodes, id)
}

// ApplyMobility updates a node's kinematics for the tick, validating the
// same InputInvariantViolation conditions as Insert.
func (s *Store) ApplyMobility(id model.NodeId, pos model.Point, speed, heading float64, laneHint string) error {
	n, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("input invariant violation: unknown node id %q", id)
	}
	if err := validateKinematics(pos, speed); err != nil {
		return err
	}
	n.PrevSpeed = n.Speed
	n.Position = pos
	n.Speed = speed
	n.Heading = heading
	n.LaneHint = laneHint
	return nil
}

// --- capability-typed mutators -------------------------------------------
//
// These are the "promote to leader" / "mark flagged" style handles: the
// only way non-owning components change node state.

// SetClusterLinkage updates a node's cluster id and role together, the unit
// the Clustering Engine and Election Coordinator need when a node joins,
// leaves, or changes role within a cluster.
func (s *Store) SetClusterLinkage(id model.NodeId, cid *model.ClusterId, role model.Role) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	n.ClusterID = cid
	n.Role = role
	if cid == nil {
		n.IsRelay = false
		n.IsBoundary = false
	}
}

// SetRole updates only the role, leaving cluster linkage untouched.
func (s *Store) SetRole(id model.NodeId, role model.Role) {
	if n, ok := s.nodes[id]; ok {
		n.Role = role
	}
}

// SetRelay sets/clears the orthogonal IsRelay flag.
func (s *Store) SetRelay(id model.NodeId, isRelay bool) {
	if n, ok := s.nodes[id]; ok {
		n.IsRelay = isRelay
	}
}

// SetBoundary sets/clears the orthogonal IsBoundary flag.
func (s *Store) SetBoundary(id model.NodeId, isBoundary bool) {
	if n, ok := s.nodes[id]; ok {
		n.IsBoundary = isBoundary
	}
}

// FlagMalicious marks a node as observed-malicious and applies the
// prescribed trust penalty; used by the Authority Monitor.
func (s *Store) FlagMalicious(id model.NodeId, trustPenaltyFactor float64) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	n.IsFlaggedMalicious = true
	n.TrustScore = model.Clamp01(n.TrustScore * trustPenaltyFactor)
}

// SetSpeed applies a clamped speed update, the shared primitive every V2V
// message effect's effect table writes through.
func (s *Store) SetSpeed(id model.NodeId, speed float64) {
	if n, ok := s.nodes[id]; ok {
		if speed < 0 {
			speed = 0
		}
		n.Speed = speed
	}
}

// RecordPeerView updates a node's cached view of a peer (Heartbeat /
// LeaderAnnouncement effect).
func (s *Store) RecordPeerView(id, peer model.NodeId, view model.PeerView) {
	if n, ok := s.nodes[id]; ok {
		n.CachedView[peer] = view
	}
}

// IncrementMessageCount bumps a node's received-message counter.
func (s *Store) IncrementMessageCount(id model.NodeId) {
	if n, ok := s.nodes[id]; ok {
		n.MessageCount++
	}
}

// TouchTick records the tick of a node's most recent Trust Engine recompute,
// the stability-term bookkeeping write the Trust Engine itself doesn't own.
func (s *Store) TouchTick(id model.NodeId, tick uint64) {
	if n, ok := s.nodes[id]; ok {
		n.TickOfLastUpdate = tick
	}
}
