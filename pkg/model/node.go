// Package model holds the Node/Cluster/Message record types shared across the
// simulation core. The Node Store and Clustering Engine are the sole owners of
// Node and Cluster records respectively; other components reach them through
// those owners, which hand out live pointers alongside their mutator methods.
package model

import "math"

// NodeId is a caller-supplied stable identifier for a vehicle.
type NodeId string

// ClusterId is minted internally when a cluster forms.
type ClusterId string

// Role is the tagged-variant primary role of a node, with orthogonal IsRelay /
// IsBoundary bit flags layered on top (a node may be Leader, Relay and
// Boundary at once). Display precedence is Leader > CoLeader > Boundary >
// Relay > Member, implemented by DisplayRole.
type Role int

const (
	RoleUnassigned Role = iota
	RoleMember
	RoleLeader
	RoleCoLeader
)

func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "Leader"
	case RoleCoLeader:
		return "CoLeader"
	case RoleMember:
		return "Member"
	default:
		return "Unassigned"
	}
}

// Point is a 2D position in the simulated plane.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Node is the per-vehicle mutable record. The Node Store
// (pkg/core/nodestore.Store) owns every *Node; its Get and All hand out the
// live pointer, and the exported fields are written both through the store's
// mutators and directly by components such as the Trust Engine.
type Node struct {
	ID NodeId

	// Kinematics.
	Position Point
	Speed    float64
	Heading  float64 // radians
	LaneHint string

	// Static resource metrics.
	BandwidthMbps float64 // [50,150]
	ProcessingGHz float64 // [1,4]

	// Trust state.
	History             TrustRing
	SocialTrust         float64
	TrustScore          float64
	Authenticity        float64
	Cooperation         float64
	BehaviorConsistency float64

	// Flags.
	IsMalicious         bool // ground truth, not visible to detectors
	IsFlaggedMalicious  bool
	IsSleeperFlagged    bool
	ElectionBannedUntil uint64

	// Cluster linkage.
	ClusterID *ClusterId
	Role      Role
	IsRelay   bool
	IsBoundary bool

	// Counters.
	MessageCount      int
	ErraticCount      int
	TickOfLastUpdate  uint64

	// EmergencyClass marks nodes that periodically emit EmergencyAlert
	// broadcasts, required by the simulator's trigger schedule.
	EmergencyClass bool

	// PrevSpeed caches the speed observed at the start of the previous tick,
	// used by the brake-detection trigger (Δspeed > 10 between ticks).
	PrevSpeed float64

	// CachedView holds the last-known role/trust of peers learned via
	// Heartbeat/Announce messages.
	CachedView map[NodeId]PeerView
}

// PeerView is the cached (role, trust) a node has observed for a peer via
// Heartbeat/LeaderAnnouncement messages.
type PeerView struct {
	Role       Role
	TrustScore float64
	Tick       uint64
}

// Clamp01 clamps a value into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// IsBanned reports whether the node is currently under an election ban.
func (n *Node) IsBanned(currentTick uint64) bool {
	return n.ElectionBannedUntil > currentTick
}

// InCluster reports whether the node currently belongs to a cluster.
func (n *Node) InCluster() bool {
	return n.ClusterID != nil
}

// DisplayRole returns the role to show when a node holds multiple
// responsibilities: Leader > CoLeader > Boundary > Relay > Member.
func (n *Node) DisplayRole() string {
	switch {
	case n.Role == RoleLeader:
		return "Leader"
	case n.Role == RoleCoLeader:
		return "CoLeader"
	case n.IsBoundary:
		return "Boundary"
	case n.IsRelay:
		return "Relay"
	case n.Role == RoleMember:
		return "Member"
	default:
		return "Unassigned"
	}
}
