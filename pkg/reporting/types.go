package reporting

import (
	"time"

	"github.com/jihwankim/vanet-sim/pkg/core/events"
)

// RunReport is the complete record of one simulation run, as saved by
// Storage and rendered by Formatter. The cmd/vanet-sim driver does not build
// one; it prints a final snapshot summary instead. Grounded on
// pkg/reporting/types.go's TestReport shape, repointed from chaos-test
// targets/faults/cleanup at VANET scenario/node/event data.
type RunReport struct {
	RunID        string    `json:"run_id"`
	ScenarioName string    `json:"scenario_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"`

	Status  RunStatus `json:"status"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`

	TicksRequested uint64 `json:"ticks_requested"`
	TicksCompleted uint64 `json:"ticks_completed"`
	NodeCount      int    `json:"node_count"`

	FinalClusters []ClusterSummary `json:"final_clusters"`
	FlaggedNodes  []string         `json:"flagged_nodes,omitempty"`

	EventSummary events.Summary  `json:"event_summary"`
	Events       []events.Entry  `json:"events,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// RunStatus represents the terminal state of a simulation run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusHalted    RunStatus = "halted"
)

// ClusterSummary is a point-in-time snapshot of one cluster's composition,
// used in the final report rather than the full per-tick snapshot.
type ClusterSummary struct {
	ID             string `json:"id"`
	LeaderID       string `json:"leader_id"`
	CoLeaderID     string `json:"co_leader_id,omitempty"`
	MemberCount    int    `json:"member_count"`
	RelayCount     int    `json:"relay_count"`
	BoundaryCount  int    `json:"boundary_count"`
	AuthorityCount int    `json:"authority_count"`
}

// LiveRunState represents the current state of a simulation run still in
// progress, reported tick-by-tick by ProgressReporter.
type LiveRunState struct {
	RunID        string        `json:"run_id"`
	ScenarioName string        `json:"scenario_name"`
	State        string        `json:"state"`
	StartTime    time.Time     `json:"start_time"`
	Elapsed      time.Duration `json:"elapsed"`

	CurrentTick  uint64 `json:"current_tick"`
	ClusterCount int    `json:"cluster_count"`
	FlaggedCount int    `json:"flagged_count"`

	LatestEvents []events.Entry `json:"latest_events,omitempty"`
}
