// Package messaging implements the V2V Messaging Fabric: a time-discrete,
// synchronous dispatcher that routes a tick's queued messages by scope
// (DirectRadio, IntraCluster, InterCluster) and applies the per-kind
// receiver-side effect table. Grounded on message_processor.py's
// MessageType/VANETMessage dispatch shape (original source) and
// pkg/core/cleanup/coordinator.go's ordered-apply pattern (teacher), adapted
// into a read-phase-snapshot design: the fabric resolves recipients from a
// frozen view of cluster membership captured at the start of the phase, and
// applies each message's effects before moving on to the next message.
package messaging

import (
	"sort"

	"github.com/jihwankim/vanet-sim/pkg/clustering"
	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/spatial"
)

// Fabric dispatches a tick's queued messages and applies their effects.
type Fabric struct {
	cfg               *config.Config
	undeliverableDrop int
}

// New creates a V2V Messaging Fabric bound to cfg.
func New(cfg *config.Config) *Fabric {
	return &Fabric{cfg: cfg}
}

// UndeliverableCount returns the running MessageUndeliverable drop counter:
// the recipient vanished mid-tick and was silently dropped.
func (f *Fabric) UndeliverableCount() int {
	return f.undeliverableDrop
}

// clusterSnapshot is the read-only view of clustering state the fabric
// resolves recipients against for the duration of one phase.
type clusterSnapshot struct {
	byID map[model.ClusterId]*model.Cluster
}

func snapshotClusters(eng *clustering.Engine) clusterSnapshot {
	byID := make(map[model.ClusterId]*model.Cluster)
	for _, c := range eng.Clusters() {
		byID[c.ID] = c
	}
	return clusterSnapshot{byID: byID}
}

// Dispatch processes every queued message in deterministic order (sender
// NodeId then sequence), resolving recipients
// against a snapshot of clustering state and applying effects as it goes.
// Effects on an individual node accumulate across messages within the tick;
// the final value is clamped at each write by the owning store's mutators.
func (f *Fabric) Dispatch(tick uint64, messages []model.Message, store *nodestore.Store, idx *spatial.Index, eng *clustering.Engine, log *events.Log) {
	ordered := append([]model.Message(nil), messages...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].SenderID != ordered[j].SenderID {
			return ordered[i].SenderID < ordered[j].SenderID
		}
		return ordered[i].Sequence < ordered[j].Sequence
	})

	snap := snapshotClusters(eng)

	for _, msg := range ordered {
		recipients := f.resolveRecipients(msg, store, idx, snap)
		delivered := 0
		for _, rid := range recipients {
			if !f.applyEffect(msg, rid, store) {
				f.undeliverableDrop++
				continue
			}
			delivered++
		}
		if log != nil {
			log.RecordMessageDelivered(tick, msg.SenderID, msg.Kind, delivered)
		}
	}
}

// resolveRecipients implements the three dispatch rules.
func (f *Fabric) resolveRecipients(msg model.Message, store *nodestore.Store, idx *spatial.Index, snap clusterSnapshot) []model.NodeId {
	sender, ok := store.Get(msg.SenderID)
	if !ok {
		return nil
	}

	switch msg.Scope {
	case model.DirectRadio:
		return f.directRadio(sender, idx)
	case model.IntraCluster:
		return f.intraCluster(sender, store, snap)
	case model.InterCluster:
		return f.interCluster(sender, store, snap)
	default:
		return nil
	}
}

func (f *Fabric) directRadio(sender *model.Node, idx *spatial.Index) []model.NodeId {
	if idx == nil {
		return nil
	}
	var out []model.NodeId
	for _, id := range idx.NeighborsWithin(sender.Position, f.cfg.RadioRangeR) {
		if id != sender.ID {
			out = append(out, id)
		}
	}
	return out
}

// intraCluster delivers to every member reachable via leader + relay_set in
// at most 2 hops, guaranteeing every member within cluster reach receives
// the message exactly once.
func (f *Fabric) intraCluster(sender *model.Node, store *nodestore.Store, snap clusterSnapshot) []model.NodeId {
	if sender.ClusterID == nil {
		return nil
	}
	c, ok := snap.byID[*sender.ClusterID]
	if !ok {
		return nil
	}

	leader, hasLeader := store.Get(c.LeaderID)
	seen := make(map[model.NodeId]struct{})
	var out []model.NodeId
	add := func(id model.NodeId) {
		if id == sender.ID {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, id := range c.MemberIDs() {
		m, ok := store.Get(id)
		if !ok {
			continue
		}
		if m.Position.Distance(sender.Position) <= f.cfg.RadioRangeR {
			add(id)
			continue
		}
		if hasLeader && m.Position.Distance(leader.Position) <= f.cfg.RadioRangeR && sender.Position.Distance(leader.Position) <= f.cfg.RadioRangeR {
			add(id)
			continue
		}
		for relayID := range c.RelaySet {
			relay, ok := store.Get(relayID)
			if !ok {
				continue
			}
			if sender.Position.Distance(relay.Position) <= f.cfg.RadioRangeR && m.Position.Distance(relay.Position) <= f.cfg.RadioRangeR {
				add(id)
				break
			}
		}
	}
	return out
}

// interCluster forwards via the sender's cluster's boundary node to the
// matching boundary node of each neighbor cluster (if within radio range),
// which then re-broadcasts IntraCluster into its own cluster.
func (f *Fabric) interCluster(sender *model.Node, store *nodestore.Store, snap clusterSnapshot) []model.NodeId {
	if sender.ClusterID == nil {
		return nil
	}
	c, ok := snap.byID[*sender.ClusterID]
	if !ok {
		return nil
	}

	var out []model.NodeId
	for neighborID, ownBoundaryID := range c.BoundaryMap {
		ownBoundary, ok := store.Get(ownBoundaryID)
		if !ok {
			continue
		}
		neighbor, ok := snap.byID[neighborID]
		if !ok {
			continue
		}
		neighborBoundaryID, ok := neighbor.BoundaryMap[c.ID]
		if !ok {
			continue
		}
		neighborBoundary, ok := store.Get(neighborBoundaryID)
		if !ok {
			continue
		}
		if ownBoundary.Position.Distance(neighborBoundary.Position) > f.cfg.RadioRangeR {
			continue
		}
		out = append(out, neighborBoundaryID)
		out = append(out, f.intraCluster(neighborBoundary, store, snap)...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// applyEffect implements the per-kind receiver-side effect table.
// Returns false if the recipient no longer exists (MessageUndeliverable).
func (f *Fabric) applyEffect(msg model.Message, recipientID model.NodeId, store *nodestore.Store) bool {
	recipient, ok := store.Get(recipientID)
	if !ok {
		return false
	}

	switch msg.Kind {
	case model.CollisionWarning:
		store.SetSpeed(recipientID, max(10, 0.7*recipient.Speed))
	case model.LaneChangeAlert:
		if !msg.Payload.LaneChangeSafe {
			store.SetSpeed(recipientID, max(5, 0.9*recipient.Speed))
		}
	case model.EmergencyAlert:
		if !recipient.EmergencyClass {
			store.SetSpeed(recipientID, max(5, 0.5*recipient.Speed))
		}
	case model.BrakeWarning:
		store.SetSpeed(recipientID, max(0, recipient.Speed-10))
	case model.TrafficJamAlert:
		store.SetSpeed(recipientID, max(5, 0.6*recipient.Speed))
	case model.Heartbeat, model.LeaderAnnouncement:
		store.RecordPeerView(recipientID, msg.SenderID, model.PeerView{
			Role:       msg.Payload.SenderRole,
			TrustScore: msg.Payload.SenderTrust,
			Tick:       msg.EmittedTick,
		})
	case model.TrustProposal, model.AuthorityFlag:
		// Forwarded to the Authority Monitor for accumulation; the fabric
		// itself only counts delivery, since flag/proposal accumulation is
		// owned by pkg/authority.
	}

	store.IncrementMessageCount(recipientID)
	return true
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
