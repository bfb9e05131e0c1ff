package model

import "sort"

// Cluster is the record owned exclusively by the Clustering Engine. Other
// components never hold a *Cluster directly across a tick boundary; they
// resolve a ClusterId through the owning store at the point of use instead,
// keeping cross-component references to IDs rather than live pointers.
type Cluster struct {
	ID ClusterId

	LeaderID   NodeId
	CoLeaderID *NodeId
	Members    map[NodeId]struct{}

	Centroid       Point
	AvgSpeed       float64
	AvgHeading     float64
	FormationTick  uint64
	LastUpdateTick uint64

	RelaySet map[NodeId]struct{}

	// BoundaryMap maps a neighboring cluster to the member of this cluster
	// elected to bridge messages to it.
	BoundaryMap map[ClusterId]NodeId
}

// NewCluster allocates an empty cluster shell; callers populate Members and
// LeaderID immediately after.
func NewCluster(id ClusterId, tick uint64) *Cluster {
	return &Cluster{
		ID:             id,
		Members:        make(map[NodeId]struct{}),
		RelaySet:       make(map[NodeId]struct{}),
		BoundaryMap:    make(map[ClusterId]NodeId),
		FormationTick:  tick,
		LastUpdateTick: tick,
	}
}

// Size returns the member count.
func (c *Cluster) Size() int {
	return len(c.Members)
}

// HasMember reports whether id is a current member.
func (c *Cluster) HasMember(id NodeId) bool {
	_, ok := c.Members[id]
	return ok
}

// MemberIDs returns member ids in deterministic (lexicographic) order, so
// callers never iterate the underlying map directly.
func (c *Cluster) MemberIDs() []NodeId {
	ids := make([]NodeId, 0, len(c.Members))
	for id := range c.Members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
