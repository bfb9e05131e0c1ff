// Package simulator is the tick-phase orchestrator tying every component
// together in a fixed order: mobility update, Proximity Index refresh,
// Clustering Engine reconcile, Election Coordinator (for leaderless
// clusters), Failure Detector, Trust Engine recompute, periodic tasks
// (overlap merge, Authority Monitor, boundary and relay election), V2V
// Messaging, metrics snapshot. Grounded on pkg/core/orchestrator/orchestrator.go's
// state-machine-driven Execute method (teacher), repointed from a
// chaos-test lifecycle's PARSE/DISCOVER/.../REPORT states to the VANET
// core's fixed per-tick component order, and from Docker/Prometheus
// collaborators to the in-process node/cluster stores.
package simulator

import (
	"fmt"

	"github.com/jihwankim/vanet-sim/pkg/authority"
	"github.com/jihwankim/vanet-sim/pkg/clustering"
	"github.com/jihwankim/vanet-sim/pkg/config"
	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/core/invariants"
	"github.com/jihwankim/vanet-sim/pkg/core/nodestore"
	"github.com/jihwankim/vanet-sim/pkg/core/safety"
	"github.com/jihwankim/vanet-sim/pkg/core/scheduler"
	"github.com/jihwankim/vanet-sim/pkg/election"
	"github.com/jihwankim/vanet-sim/pkg/failure"
	"github.com/jihwankim/vanet-sim/pkg/messaging"
	"github.com/jihwankim/vanet-sim/pkg/metrics"
	"github.com/jihwankim/vanet-sim/pkg/model"
	"github.com/jihwankim/vanet-sim/pkg/reporting"
	"github.com/jihwankim/vanet-sim/pkg/spatial"
	"github.com/jihwankim/vanet-sim/pkg/trust"
)

// NodeInput is one node's per-tick mobility update, the only external input
// the core accepts.
type NodeInput struct {
	ID       model.NodeId
	Position model.Point
	Speed    float64
	Heading  float64
	LaneHint string
}

// NodeRow is one row of the node-view snapshot output.
type NodeRow struct {
	ID                 model.NodeId
	Position           model.Point
	Speed              float64
	Heading            float64
	ClusterID          *model.ClusterId
	Role               model.Role
	DisplayRole        string
	TrustScore         float64
	IsFlaggedMalicious bool
}

// ClusterRow is one row of the cluster-view snapshot output.
type ClusterRow struct {
	ID         model.ClusterId
	LeaderID   model.NodeId
	CoLeaderID *model.NodeId
	Members    []model.NodeId
	Relays     []model.NodeId
	Boundaries map[model.ClusterId]model.NodeId
	Centroid   model.Point
	Radius     float64
}

// Snapshot is the full per-tick output record.
type Snapshot struct {
	Tick     uint64
	Nodes    []NodeRow
	Clusters []ClusterRow
}

// InitialNode seeds the Node Store at construction time: nodes are created
// once at simulation start.
type InitialNode struct {
	ID            model.NodeId
	Position      model.Point
	Speed         float64
	Heading       float64
	LaneHint      string
	BandwidthMbps float64
	ProcessingGHz float64
	Authenticity  float64
	Cooperation   float64
	BehaviorConsistency float64
	// EmergencyClass marks nodes that periodically emit EmergencyAlert
	// broadcasts, a simulator-driven trigger.
	EmergencyClass bool
}

const (
	// collisionRiskFraction is the supplemental proximity threshold used by
	// the collision-risk trigger, expressed as a fraction of radio_range_R
	// since only the trigger cadence is fixed, not the distance.
	collisionRiskFraction = 0.10
)

// Simulator owns every component instance for one simulation run. It is the
// only thing that ever holds all of them at once; no component reaches
// another directly.
type Simulator struct {
	cfg *config.Config

	store      *nodestore.Store
	idx        *spatial.Index
	trustEng   *trust.Engine
	clusterEng *clustering.Engine
	electCoord *election.Coordinator
	failureDet *failure.Detector
	authMon    *authority.Monitor
	fabric     *messaging.Fabric
	log        *events.Log
	sched      *scheduler.Scheduler
	safetyCtl  *safety.Controller
	metricsC   *metrics.Collector
	logger     *reporting.Logger

	nextSeq uint64
}

// New constructs a Simulator and its Node Store from the given config and
// initial node population. The Clustering Engine's cluster-id generator is
// seeded from cfg.Seed at this point, so construction order itself is part
// of the determinism contract.
func New(cfg *config.Config, initial []InitialNode, logger *reporting.Logger) (*Simulator, error) {
	store := nodestore.New()
	for _, in := range initial {
		n := &model.Node{
			ID:                  in.ID,
			Position:            in.Position,
			Speed:               in.Speed,
			Heading:             in.Heading,
			LaneHint:            in.LaneHint,
			BandwidthMbps:       in.BandwidthMbps,
			ProcessingGHz:       in.ProcessingGHz,
			Authenticity:        in.Authenticity,
			Cooperation:         in.Cooperation,
			BehaviorConsistency: in.BehaviorConsistency,
			SocialTrust:         0.5,
			TrustScore:          0.5,
			EmergencyClass:      in.EmergencyClass,
		}
		if err := store.Insert(n); err != nil {
			return nil, fmt.Errorf("seed node %q: %w", in.ID, err)
		}
	}

	trustEng := trust.New(cfg)
	clusterEng := clustering.New(cfg)
	electCoord := election.New(cfg, trustEng)
	failureDet := failure.New(cfg, electCoord)
	authMon := authority.New(cfg, failureDet)
	fabric := messaging.New(cfg)

	sim := &Simulator{
		cfg:        cfg,
		store:      store,
		idx:        spatial.New(cfg.RadioRangeR),
		trustEng:   trustEng,
		clusterEng: clusterEng,
		electCoord: electCoord,
		failureDet: failureDet,
		authMon:    authMon,
		fabric:     fabric,
		log:        events.NewLog(),
		sched:      scheduler.New(),
		safetyCtl:  safety.New(),
		metricsC:   metrics.New(),
		logger:     logger,
	}

	sim.sched.Register("overlap-merge", cfg.MergeInterval, func(tick uint64) {
		sim.clusterEng.MergeOverlapping(tick, sim.store, sim.log)
	})
	sim.sched.Register("poa-monitor", cfg.PoAInterval, func(tick uint64) {
		for _, c := range sim.clusterEng.Clusters() {
			sim.authMon.RunCluster(tick, c, sim.store, sim.log)
		}
		sim.authMon.RunIsolated(tick, sim.store, sim.log)
	})
	sim.sched.Register("boundary-election", cfg.BoundaryInterval, func(tick uint64) {
		clusters := sim.clusterEng.Clusters()
		for _, c := range clusters {
			sim.failureDet.BoundaryElection(c, clusters, sim.store)
		}
	})
	sim.sched.Register("relay-election", cfg.RelayInterval, func(tick uint64) {
		for _, c := range sim.clusterEng.Clusters() {
			sim.failureDet.RelayElection(c, sim.store)
		}
	})

	return sim, nil
}

// Events returns the accumulated event log.
func (s *Simulator) Events() *events.Log {
	return s.log
}

// Store exposes the Node Store for collaborator-owned per-tick drivers
// (scenario mobility replay, adversary injection) that run outside the
// fixed per-tick component order but must still observe/mutate nodes between
// Advance calls.
func (s *Simulator) Store() *nodestore.Store {
	return s.store
}

// Metrics returns the simulator-owned Metrics aggregate.
func (s *Simulator) Metrics() *metrics.Collector {
	return s.metricsC
}

// Halted reports whether a StateInvariantRegression has halted the
// simulator; once true, Advance always fails.
func (s *Simulator) Halted() bool {
	return s.safetyCtl.IsHalted()
}

// Advance runs one full tick: mobility update, then every component in
// fixed order, then a metrics snapshot. On a StateInvariantRegression it
// halts the simulator and returns a non-nil error; the caller must not call
// Advance again afterward. InputInvariantViolation conditions (malformed
// mobility input) are returned as plain errors without halting: they fail
// fast at the boundary before touching internals.
func (s *Simulator) Advance(tick uint64, inputs []NodeInput) (snap Snapshot, err error) {
	if s.safetyCtl.IsHalted() {
		return Snapshot{}, fmt.Errorf("simulator halted: %s", s.safetyCtl.Reason())
	}

	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(invariants.Violation)
			if !ok {
				panic(r)
			}
			s.log.RecordStateRegression(v.Tick, v.Detail)
			s.safetyCtl.Halt(v.Error())
			if s.logger != nil {
				s.logger.WithTick(v.Tick).Error("state invariant regression, halting simulator", "detail", v.Detail)
			}
			snap = Snapshot{}
			err = v
		}
	}()

	for _, in := range inputs {
		if appErr := s.store.ApplyMobility(in.ID, in.Position, in.Speed, in.Heading, in.LaneHint); appErr != nil {
			return Snapshot{}, appErr
		}
	}

	positions := make(map[model.NodeId]model.Point, s.store.Len())
	for _, n := range s.store.All() {
		positions[n.ID] = n.Position
	}
	s.idx.Rebuild(positions)

	beforeEntries := len(s.log.Entries())
	s.clusterEng.Reconcile(tick, s.store, s.idx, s.log, s.cfg.LifetimeTolTicks)

	// Only the centroid-radius invariant is safe to check here: leaders and
	// relays have not been (re)elected yet this tick, so a freshly formed
	// cluster has no LeaderID and a cluster whose leader just detached still
	// names it — transient states the Election Coordinator and Failure
	// Detector below are about to resolve, not a real regression.
	invariants.VerifyClusterRadius(tick, s.store, s.clusterEng, s.cfg.MaxClusterRadius)

	for _, c := range s.clusterEng.Clusters() {
		if c.LeaderID == "" {
			if s.electCoord.RunElection(tick, c, s.store, s.log) {
				s.failureDet.RelayElection(c, s.store)
			} else {
				s.clusterEng.Dissolve(tick, c.ID, s.store, s.log, "empty candidate set at formation")
			}
		}
	}

	for _, c := range s.clusterEng.Clusters() {
		if s.failureDet.CheckAndRecover(tick, c, s.store, s.log) {
			if _, ok := c.Members[c.LeaderID]; !ok {
				s.clusterEng.Dissolve(tick, c.ID, s.store, s.log, "empty candidate set after leader failure")
				continue
			}
			s.failureDet.RelayElection(c, s.store)
		}
	}

	// The full pass (including the leader/co-leader and relay-reachability
	// invariants) only runs once election and failure detection have
	// resolved this tick's leader/relay state.
	invariants.Verify(tick, s.store, s.clusterEng, s.cfg.RadioRangeR, s.cfg.MaxClusterRadius)

	s.recomputeTrust(tick)

	s.sched.RunDue(tick)

	outbox := s.collectTriggeredMessages(tick)
	s.fabric.Dispatch(tick, outbox, s.store, s.idx, s.clusterEng, s.log)
	s.metricsC.RecordUndeliverable(s.fabric.UndeliverableCount())

	newEntries := s.log.Entries()[beforeEntries:]
	s.metricsC.Observe(tick, s.store.All(), len(s.clusterEng.Clusters()), newEntries)

	return s.buildSnapshot(tick), nil
}

// recomputeTrust runs the per-node social/historical trust recompute and
// sleeper-spike check, once per tick per node, using proximity as the
// interaction signal (nodes within radio range of each other are treated as
// having interacted this tick).
func (s *Simulator) recomputeTrust(tick uint64) {
	for _, n := range s.store.All() {
		var reports []trust.NeighborReport
		for _, peerID := range s.idx.NeighborsWithin(n.Position, s.cfg.RadioRangeR) {
			if peerID == n.ID {
				continue
			}
			peer, ok := s.store.Get(peerID)
			if !ok {
				continue
			}
			reports = append(reports, trust.NeighborReport{
				TrustScore:       peer.TrustScore,
				InteractionCount: 1,
				IsFlagged:        peer.IsFlaggedMalicious,
			})
		}
		s.trustEng.RecomputeSocial(n, reports, s.cfg.SocialTrustDecay)
		s.trustEng.RecomputeTrust(n)

		in := trust.CompositeInputs{DistanceToCentroid: 0}
		if n.ClusterID != nil {
			if c, ok := s.clusterEng.Get(*n.ClusterID); ok {
				in.DistanceToCentroid = n.Position.Distance(c.Centroid)
				in.TimeInClusterNormalized = model.Clamp01(float64(tick-c.FormationTick) / 100)
				in.ConnectionQuality = model.Clamp01(1 - in.DistanceToCentroid/s.cfg.MaxClusterRadius)
			}
		}
		composite := s.trustEng.CompositeScore(n, in)
		s.trustEng.RecordSample(n, tick, composite)

		wasSleeperFlagged := n.IsSleeperFlagged
		if s.trustEng.SleeperSpikeCheck(n, tick) && !wasSleeperFlagged {
			s.metricsC.RecordSleeperDetection()
		}
		s.store.TouchTick(n.ID, tick)
	}
}

// collectTriggeredMessages implements the simulator-emitted triggers:
// periodic emergency broadcasts, collision-risk checks, brake-detection,
// and traffic-jam detection.
func (s *Simulator) collectTriggeredMessages(tick uint64) []model.Message {
	var out []model.Message
	emit := func(kind model.MessageKind, sender model.NodeId, scope model.Scope, payload model.Payload) {
		out = append(out, model.Message{
			Kind:        kind,
			SenderID:    sender,
			Sequence:    s.nextSeq,
			EmittedTick: tick,
			Payload:     payload,
			Scope:       scope,
		})
		s.nextSeq++
	}

	if scheduler.Due(tick, s.cfg.EmergencyBroadcastIntervalTicks) {
		for _, n := range s.store.All() {
			if !n.EmergencyClass {
				continue
			}
			emit(model.EmergencyAlert, n.ID, model.IntraCluster, model.Payload{})
			emit(model.EmergencyAlert, n.ID, model.InterCluster, model.Payload{})
		}
	}

	if scheduler.Due(tick, s.cfg.CollisionCheckIntervalTicks) {
		collisionDist := s.cfg.RadioRangeR * collisionRiskFraction
		for _, pair := range s.idx.PairsWithin(collisionDist) {
			emit(model.CollisionWarning, pair.NodeA, model.DirectRadio, model.Payload{})
			emit(model.CollisionWarning, pair.NodeB, model.DirectRadio, model.Payload{})
		}
	}

	for _, n := range s.store.All() {
		if n.PrevSpeed-n.Speed > s.cfg.BrakeDropThreshold {
			emit(model.BrakeWarning, n.ID, model.DirectRadio, model.Payload{})
		}
	}

	for _, c := range s.clusterEng.Clusters() {
		if c.LeaderID == "" {
			continue
		}
		slow := 0
		for _, id := range c.MemberIDs() {
			m, ok := s.store.Get(id)
			if !ok {
				continue
			}
			if m.Position.Distance(c.Centroid) <= s.cfg.TrafficJamRadius && m.Speed < s.cfg.TrafficJamSpeedThreshold {
				slow++
			}
		}
		if slow >= s.cfg.TrafficJamMinCount {
			emit(model.TrafficJamAlert, c.LeaderID, model.IntraCluster, model.Payload{})
		}
	}

	return out
}

func (s *Simulator) buildSnapshot(tick uint64) Snapshot {
	nodes := s.store.All()
	nodeRows := make([]NodeRow, 0, len(nodes))
	for _, n := range nodes {
		nodeRows = append(nodeRows, NodeRow{
			ID:                 n.ID,
			Position:           n.Position,
			Speed:              n.Speed,
			Heading:            n.Heading,
			ClusterID:          n.ClusterID,
			Role:               n.Role,
			DisplayRole:        n.DisplayRole(),
			TrustScore:         n.TrustScore,
			IsFlaggedMalicious: n.IsFlaggedMalicious,
		})
	}

	clusters := s.clusterEng.Clusters()
	clusterRows := make([]ClusterRow, 0, len(clusters))
	for _, c := range clusters {
		radius := 0.0
		for _, id := range c.MemberIDs() {
			if n, ok := s.store.Get(id); ok {
				if d := n.Position.Distance(c.Centroid); d > radius {
					radius = d
				}
			}
		}
		relays := make([]model.NodeId, 0, len(c.RelaySet))
		for id := range c.RelaySet {
			relays = append(relays, id)
		}
		boundaries := make(map[model.ClusterId]model.NodeId, len(c.BoundaryMap))
		for k, v := range c.BoundaryMap {
			boundaries[k] = v
		}
		clusterRows = append(clusterRows, ClusterRow{
			ID:         c.ID,
			LeaderID:   c.LeaderID,
			CoLeaderID: c.CoLeaderID,
			Members:    c.MemberIDs(),
			Relays:     relays,
			Boundaries: boundaries,
			Centroid:   c.Centroid,
			Radius:     radius,
		})
	}

	return Snapshot{Tick: tick, Nodes: nodeRows, Clusters: clusterRows}
}
