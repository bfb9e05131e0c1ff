package model

// MessageKind enumerates the V2V message kinds nodes can exchange.
type MessageKind int

const (
	CollisionWarning MessageKind = iota
	LaneChangeAlert
	EmergencyAlert
	BrakeWarning
	TrafficJamAlert
	TrustProposal
	AuthorityFlag
	LeaderAnnouncement
	Heartbeat
)

func (k MessageKind) String() string {
	switch k {
	case CollisionWarning:
		return "CollisionWarning"
	case LaneChangeAlert:
		return "LaneChangeAlert"
	case EmergencyAlert:
		return "EmergencyAlert"
	case BrakeWarning:
		return "BrakeWarning"
	case TrafficJamAlert:
		return "TrafficJamAlert"
	case TrustProposal:
		return "TrustProposal"
	case AuthorityFlag:
		return "AuthorityFlag"
	case LeaderAnnouncement:
		return "LeaderAnnouncement"
	case Heartbeat:
		return "Heartbeat"
	default:
		return "Unknown"
	}
}

// Scope controls the dispatch rule a message is routed under.
type Scope int

const (
	DirectRadio Scope = iota
	IntraCluster
	InterCluster
)

// Payload carries kind-specific data needed by the effect table; only the
// fields relevant to a given Kind are meaningful.
type Payload struct {
	// LaneChangeSafe is read for LaneChangeAlert.
	LaneChangeSafe bool
	// SenderRole/SenderTrust are read for Heartbeat/LeaderAnnouncement to
	// update the receiver's cached view of the sender.
	SenderRole  Role
	SenderTrust float64
}

// Message is a single V2V transmission.
type Message struct {
	Kind        MessageKind
	SenderID    NodeId
	Sequence    uint64
	EmittedTick uint64
	ExpiryTick  *uint64
	Payload     Payload
	Scope       Scope
}
