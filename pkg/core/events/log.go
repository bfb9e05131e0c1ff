// Package events is the simulator's event log, generalizing the output
// contract (ClusterFormed, ClusterDissolved, LeaderElected, CoLeaderPromoted,
// NodeFlagged, MessageDelivered) into a structured, tick-stamped audit trail.
// Grounded on pkg/core/cleanup/coordinator.go's AuditEntry / logAudit /
// PrintAuditLog pattern, repointed at VANET lifecycle events instead of
// chaos-test cleanup actions.
package events

import (
	"fmt"
	"strings"

	"github.com/jihwankim/vanet-sim/pkg/model"
)

// Kind enumerates the event kinds the simulator emits.
type Kind string

const (
	ClusterFormed     Kind = "ClusterFormed"
	ClusterDissolved  Kind = "ClusterDissolved"
	LeaderElected     Kind = "LeaderElected"
	CoLeaderPromoted  Kind = "CoLeaderPromoted"
	NodeFlagged       Kind = "NodeFlagged"
	MessageDelivered  Kind = "MessageDelivered"
	ClusterDegraded   Kind = "ClusterDegraded"
	StateRegression   Kind = "StateInvariantRegression"
)

// Entry is one logged event.
type Entry struct {
	Tick      uint64
	Kind      Kind
	ClusterID model.ClusterId
	NodeID    model.NodeId // optional, zero value if not applicable
	OldValue  string
	NewValue  string
	Details   string
}

// Log accumulates Entries across a simulation run.
type Log struct {
	entries []Entry
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{}
}

func (l *Log) record(e Entry) {
	l.entries = append(l.entries, e)
}

// RecordClusterFormed logs cluster formation.
func (l *Log) RecordClusterFormed(tick uint64, cid model.ClusterId) {
	l.record(Entry{Tick: tick, Kind: ClusterFormed, ClusterID: cid})
}

// RecordClusterDissolved logs cluster dissolution.
func (l *Log) RecordClusterDissolved(tick uint64, cid model.ClusterId, reason string) {
	l.record(Entry{Tick: tick, Kind: ClusterDissolved, ClusterID: cid, Details: reason})
}

// RecordLeaderElected logs a leader change.
func (l *Log) RecordLeaderElected(tick uint64, cid model.ClusterId, oldLeader, newLeader model.NodeId) {
	l.record(Entry{Tick: tick, Kind: LeaderElected, ClusterID: cid, NodeID: newLeader, OldValue: string(oldLeader), NewValue: string(newLeader)})
}

// RecordCoLeaderPromoted logs a co-leader assignment.
func (l *Log) RecordCoLeaderPromoted(tick uint64, cid model.ClusterId, nodeID model.NodeId) {
	l.record(Entry{Tick: tick, Kind: CoLeaderPromoted, ClusterID: cid, NodeID: nodeID})
}

// RecordNodeFlagged logs an authority-monitor flag.
func (l *Log) RecordNodeFlagged(tick uint64, nodeID model.NodeId, cid model.ClusterId) {
	l.record(Entry{Tick: tick, Kind: NodeFlagged, NodeID: nodeID, ClusterID: cid})
}

// RecordMessageDelivered logs a completed V2V dispatch.
func (l *Log) RecordMessageDelivered(tick uint64, sender model.NodeId, kind model.MessageKind, nRecipients int) {
	l.record(Entry{Tick: tick, Kind: MessageDelivered, NodeID: sender, Details: fmt.Sprintf("%s -> %d recipients", kind, nRecipients)})
}

// RecordClusterDegraded logs a ClusterDegraded recoverable condition.
func (l *Log) RecordClusterDegraded(tick uint64, cid model.ClusterId, reason string) {
	l.record(Entry{Tick: tick, Kind: ClusterDegraded, ClusterID: cid, Details: reason})
}

// RecordStateRegression logs a fatal StateInvariantRegression immediately
// before the simulator halts.
func (l *Log) RecordStateRegression(tick uint64, detail string) {
	l.record(Entry{Tick: tick, Kind: StateRegression, Details: detail})
}

// Entries returns all logged entries in emission order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// Since returns entries emitted at or after the given tick.
func (l *Log) Since(tick uint64) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Tick >= tick {
			out = append(out, e)
		}
	}
	return out
}

// Summary counts entries per kind.
type Summary struct {
	Counts map[Kind]int
	Total  int
}

// GetSummary aggregates the log by kind.
func (l *Log) GetSummary() Summary {
	s := Summary{Counts: make(map[Kind]int)}
	for _, e := range l.entries {
		s.Counts[e.Kind]++
		s.Total++
	}
	return s
}

// String renders the summary as a one-line-per-kind report.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event Log Summary: %d total\n", s.Total)
	for k, c := range s.Counts {
		fmt.Fprintf(&b, "  %-28s %d\n", k, c)
	}
	return b.String()
}
