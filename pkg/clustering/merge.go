package clustering

import (
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
)

// MergeOverlapping runs the overlap-merge pass: for every pair of
// clusters whose leader positions are within MERGE_DISTANCE, compute the
// overlap ratio (shared+close members / size of the smaller cluster); merge
// the smaller cluster into the larger one if ratio > 0.30 OR leader distance
// < 350. Ties broken by cluster age (older survives), then lexicographic id.
// Intended to be invoked by the scheduler every MERGE_INTERVAL ticks.
func (e *Engine) MergeOverlapping(tick uint64, store *nodestore.Store, log *events.Log) {
	const closeDistanceThreshold = 350

	for {
		merged := false
		clusters := e.Clusters()
		for i := 0; i < len(clusters) && !merged; i++ {
			for j := i + 1; j < len(clusters); j++ {
				a, b := clusters[i], clusters[j]
				leaderA, okA := store.Get(a.LeaderID)
				leaderB, okB := store.Get(b.LeaderID)
				if !okA || !okB {
					continue
				}
				leaderDist := leaderA.Position.Distance(leaderB.Position)
				if leaderDist > e.cfg.MergeDistance {
					continue
				}

				ratio := overlapRatio(a, b, store, e.cfg.RadioRangeR)
				if ratio <= 0.30 && leaderDist >= closeDistanceThreshold {
					continue
				}

				survivor, secondary := pickSurvivor(a, b)
				e.mergeInto(tick, survivor, secondary, store, log)
				merged = true
				break
			}
		}
		if !merged {
			return
		}
	}
}

// overlapRatio counts members of the smaller cluster that are either shared
// (impossible since a node belongs to at most one cluster, included for
// symmetry with the original) or within RadioRangeR of the other cluster's
// centroid, divided
// by the smaller cluster's size.
func overlapRatio(a, b *model.Cluster, store *nodestore.Store, radioRangeR float64) float64 {
	smaller, larger := a, b
	if b.Size() < a.Size() {
		smaller, larger = b, a
	}
	if smaller.Size() == 0 {
		return 0
	}
	close := 0
	for _, id := range smaller.MemberIDs() {
		n, ok := store.Get(id)
		if !ok {
			continue
		}
		if n.Position.Distance(larger.Centroid) <= radioRangeR {
			close++
		}
	}
	return float64(close) / float64(smaller.Size())
}

// pickSurvivor implements "merge the smaller into the larger": the larger
// cluster (by member count) survives. Ties broken by cluster age (smaller
// FormationTick, i.e. older, survives), then lexicographic id.
func pickSurvivor(a, b *model.Cluster) (survivor, secondary *model.Cluster) {
	if a.Size() != b.Size() {
		if a.Size() > b.Size() {
			return a, b
		}
		return b, a
	}
	if a.FormationTick != b.FormationTick {
		if a.FormationTick < b.FormationTick {
			return a, b
		}
		return b, a
	}
	if a.ID < b.ID {
		return a, b
	}
	return b, a
}

func (e *Engine) mergeInto(tick uint64, survivor, secondary *model.Cluster, store *nodestore.Store, log *events.Log) {
	for _, id := range secondary.MemberIDs() {
		survivor.Members[id] = struct{}{}
		cid := survivor.ID
		// The secondary cluster's leader (and any relay/boundary roles) are
		// demoted to plain Member on merge; the survivor's leader is untouched.
		store.SetClusterLinkage(id, &cid, model.RoleMember)
		store.SetRelay(id, false)
		store.SetBoundary(id, false)
	}
	delete(e.clusters, secondary.ID)
	e.recomputeGeometry(tick, store)
	if log != nil {
		log.RecordClusterDissolved(tick, secondary.ID, "merged into "+string(survivor.ID))
	}
}
