// Package clustering implements the Clustering Engine: the sole owner of
// Cluster records, responsible for forming, growing, merging, and
// dissolving clusters under the mobility/direction/proximity compatibility
// predicate. Grounded on the original VehicleClustering's mobility-based
// algorithm (clustering.py) and ClusterManager's overlap-merge pass
// (cluster_manager.py), reshaped around a typed Cluster store instead of
// freely-mutated dictionaries.
package clustering

import (
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/spatial"
)

// Engine owns every Cluster record. Nothing outside this package ever holds
// a *model.Cluster across a tick boundary; callers resolve a ClusterId
// through Get at the point of use.
type Engine struct {
	cfg      *config.Config
	clusters map[model.ClusterId]*model.Cluster
	idgen    *rand.Rand
}

// New creates a Clustering Engine whose internal cluster-id generator is
// seeded from cfg.Seed, so cluster formation order is deterministic across
// runs with identical seed/config/mobility even though ids are minted via
// github.com/google/uuid.
func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg:      cfg,
		clusters: make(map[model.ClusterId]*model.Cluster),
		idgen:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (e *Engine) newClusterID() model.ClusterId {
	u, err := uuid.NewRandomFromReader(e.idgen)
	if err != nil {
		// math/rand.Rand.Read never errors; this is unreachable in practice.
		panic(err)
	}
	return model.ClusterId(u.String())
}

// Clusters returns all clusters sorted by id for deterministic iteration.
func (e *Engine) Clusters() []*model.Cluster {
	out := make([]*model.Cluster, 0, len(e.clusters))
	for _, c := range e.clusters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the cluster for id.
func (e *Engine) Get(id model.ClusterId) (*model.Cluster, bool) {
	c, ok := e.clusters[id]
	return c, ok
}

// Seed registers pre-built clusters directly, bypassing Reconcile's
// formation predicate. Used by tests that need a fixed topology.
func (e *Engine) Seed(clusters []*model.Cluster) {
	for _, c := range clusters {
		e.clusters[c.ID] = c
	}
}

// angleDiff returns the smallest absolute angular difference between two
// headings in radians, handling wraparound the way the original's
// direction_similarity does.
func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Compatible implements the compatibility predicate between a node and a
// cluster's current centroid/avg_speed/avg_heading.
func Compatible(n *model.Node, c *model.Cluster, cfg *config.Config) bool {
	if n.Position.Distance(c.Centroid) > cfg.MaxClusterRadius {
		return false
	}
	if math.Abs(n.Speed-c.AvgSpeed) > cfg.SpeedTol {
		return false
	}
	if angleDiff(n.Heading, c.AvgHeading) > cfg.HeadingTol {
		return false
	}
	return true
}

// joinScore is the weighted compatibility score used to pick the best
// cluster for an unassigned node: 0.4*proximity + 0.3*speed_match +
// 0.3*heading_match, each sub-score normalized to [0,1].
func joinScore(n *model.Node, c *model.Cluster, cfg *config.Config) float64 {
	proximity := model.Clamp01(1 - n.Position.Distance(c.Centroid)/cfg.MaxClusterRadius)
	speedMatch := model.Clamp01(1 - math.Abs(n.Speed-c.AvgSpeed)/math.Max(cfg.SpeedTol, 1e-9))
	headingMatch := model.Clamp01(1 - angleDiff(n.Heading, c.AvgHeading)/math.Max(cfg.HeadingTol, 1e-9))
	return 0.4*proximity + 0.3*speedMatch + 0.3*headingMatch
}

const joinThreshold = 0.5

// Reconcile runs the per-tick reconciliation pass: detach incompatible members, join
// best-fit clusters, seed new clusters from compatible unassigned pairs,
// recompute centroid/avg speed/avg heading, and dissolve clusters that
// dropped below MIN_CLUSTER_SIZE or have gone stale. Overlap merge (step 5)
// is a separate, periodically-scheduled pass: MergeOverlapping.
func (e *Engine) Reconcile(tick uint64, store *nodestore.Store, idx *spatial.Index, log *events.Log, lifetimeTolTicks uint64) {
	e.detachIncompatible(store)
	e.joinCompatible(tick, store, idx)
	e.seedNewClusters(tick, store, idx, log)
	e.recomputeGeometry(tick, store)
	e.dissolveStale(tick, store, log, lifetimeTolTicks)
}

func (e *Engine) detachIncompatible(store *nodestore.Store) {
	for _, c := range e.Clusters() {
		for _, id := range c.MemberIDs() {
			n, ok := store.Get(id)
			if !ok {
				delete(c.Members, id)
				continue
			}
			if !Compatible(n, c, e.cfg) {
				delete(c.Members, id)
				delete(c.RelaySet, id)
				store.SetClusterLinkage(id, nil, model.RoleUnassigned)
			}
		}
	}
}

func (e *Engine) joinCompatible(tick uint64, store *nodestore.Store, idx *spatial.Index) {
	for _, n := range store.All() {
		if n.InCluster() {
			continue
		}
		var best *model.Cluster
		bestScore := 0.0
		for _, c := range e.Clusters() {
			if c.Size() >= e.cfg.MaxClusterSize {
				continue
			}
			if !Compatible(n, c, e.cfg) {
				continue
			}
			score := joinScore(n, c, e.cfg)
			if score >= joinThreshold && score > bestScore {
				bestScore = score
				best = c
			}
		}
		if best != nil {
			best.Members[n.ID] = struct{}{}
			cid := best.ID
			store.SetClusterLinkage(n.ID, &cid, model.RoleMember)
			best.LastUpdateTick = tick
		}
	}
}

func (e *Engine) seedNewClusters(tick uint64, store *nodestore.Store, idx *spatial.Index, log *events.Log) {
	unassigned := func() []model.NodeId {
		var ids []model.NodeId
		for _, n := range store.All() {
			if !n.InCluster() {
				ids = append(ids, n.ID)
			}
		}
		return ids
	}

	for {
		ids := unassigned()
		var seedA, seedB model.NodeId
		found := false
		for i := 0; i < len(ids) && !found; i++ {
			a, _ := store.Get(ids[i])
			for j := i + 1; j < len(ids); j++ {
				b, _ := store.Get(ids[j])
				if a.Position.Distance(b.Position) > e.cfg.RadioRangeR {
					continue
				}
				if math.Abs(a.Speed-b.Speed) > e.cfg.SpeedTol {
					continue
				}
				if angleDiff(a.Heading, b.Heading) > e.cfg.HeadingTol {
					continue
				}
				seedA, seedB = ids[i], ids[j]
				found = true
				break
			}
		}
		if !found {
			return
		}

		cid := e.newClusterID()
		c := model.NewCluster(cid, tick)
		na, _ := store.Get(seedA)
		nb, _ := store.Get(seedB)
		c.Members[seedA] = struct{}{}
		c.Members[seedB] = struct{}{}
		c.Centroid = midpoint(na.Position, nb.Position)
		c.AvgSpeed = (na.Speed + nb.Speed) / 2
		c.AvgHeading = circularMean([]float64{na.Heading, nb.Heading})
		store.SetClusterLinkage(seedA, &cid, model.RoleMember)
		store.SetClusterLinkage(seedB, &cid, model.RoleMember)

		// Admit further compatible unassigned nodes up to MAX_CLUSTER_SIZE.
		for _, id := range unassigned() {
			if c.Size() >= e.cfg.MaxClusterSize {
				break
			}
			n, _ := store.Get(id)
			if n.ClusterID != nil {
				continue
			}
			if Compatible(n, c, e.cfg) {
				c.Members[id] = struct{}{}
				store.SetClusterLinkage(id, &cid, model.RoleMember)
			}
		}

		e.clusters[cid] = c
		if log != nil {
			log.RecordClusterFormed(tick, cid)
		}
	}
}

func midpoint(a, b model.Point) model.Point {
	return model.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// circularMean computes the circular mean of a set of headings via
// atan2(sum(sin), sum(cos)), matching the original's
// _calculate_average_direction.
func circularMean(headings []float64) float64 {
	if len(headings) == 0 {
		return 0
	}
	var sx, sy float64
	for _, h := range headings {
		sx += math.Sin(h)
		sy += math.Cos(h)
	}
	return math.Atan2(sx, sy)
}

func (e *Engine) recomputeGeometry(tick uint64, store *nodestore.Store) {
	for _, c := range e.Clusters() {
		ids := c.MemberIDs()
		if len(ids) == 0 {
			continue
		}
		var sx, sy, sSpeed float64
		headings := make([]float64, 0, len(ids))
		for _, id := range ids {
			n, ok := store.Get(id)
			if !ok {
				continue
			}
			sx += n.Position.X
			sy += n.Position.Y
			sSpeed += n.Speed
			headings = append(headings, n.Heading)
		}
		c.Centroid = model.Point{X: sx / float64(len(ids)), Y: sy / float64(len(ids))}
		c.AvgSpeed = sSpeed / float64(len(ids))
		c.AvgHeading = circularMean(headings)
		c.LastUpdateTick = tick
	}
}

func (e *Engine) dissolveStale(tick uint64, store *nodestore.Store, log *events.Log, lifetimeTolTicks uint64) {
	for _, c := range e.Clusters() {
		stale := lifetimeTolTicks > 0 && tick > c.LastUpdateTick && tick-c.LastUpdateTick > lifetimeTolTicks
		if c.Size() >= e.cfg.MinClusterSize && !stale {
			continue
		}
		e.dissolve(c, store, log, tick, "below minimum size or stale")
	}
}

func (e *Engine) dissolve(c *model.Cluster, store *nodestore.Store, log *events.Log, tick uint64, reason string) {
	for _, id := range c.MemberIDs() {
		store.SetClusterLinkage(id, nil, model.RoleUnassigned)
	}
	delete(e.clusters, c.ID)
	if log != nil {
		log.RecordClusterDissolved(tick, c.ID, reason)
	}
}

// Dissolve is the public entry point for dissolving a cluster outright. The
// simulator calls it when an election finds an empty candidate set.
func (e *Engine) Dissolve(tick uint64, id model.ClusterId, store *nodestore.Store, log *events.Log, reason string) {
	if c, ok := e.clusters[id]; ok {
		e.dissolve(c, store, log, tick, reason)
	}
}

// QualityScore supplements clustering with the original's ClusterMetrics
// observability surface (cluster_manager.py), a read-only score with no
// effect on clustering decisions.
func QualityScore(c *model.Cluster, lifetimeTicks, maxLifetimeTicks uint64, mobilityVariance float64) float64 {
	normLifetime := model.Clamp01(float64(lifetimeTicks) / float64(maxLifetimeTicks))
	normMobility := model.Clamp01(1 - mobilityVariance/100)
	normSize := model.Clamp01(float64(c.Size()) / 10)
	return model.Clamp01(0.4*normMobility + 0.3*normSize + 0.3*normLifetime)
}
