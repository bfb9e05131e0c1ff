package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports tick-by-tick simulation progress
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current run state
func (pr *ProgressReporter) ReportState(state LiveRunState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportClusterLifecycle reports a cluster formation or dissolution
func (pr *ProgressReporter) ReportClusterLifecycle(tick uint64, kind, clusterID, detail string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "cluster_lifecycle",
			"tick":       tick,
			"kind":       kind,
			"cluster_id": clusterID,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🔀 tick %d: %s %s %s\n", tick, kind, clusterID, detail)
	default:
		fmt.Printf("[CLUSTER] tick %d: %s %s %s\n", tick, kind, clusterID, detail)
	}
}

// ReportNodeFlagged reports an authority-monitor flag on a node
func (pr *ProgressReporter) ReportNodeFlagged(tick uint64, nodeID, clusterID string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":      "node_flagged",
			"tick":       tick,
			"node_id":    nodeID,
			"cluster_id": clusterID,
			"timestamp":  time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🚩 tick %d: %s flagged malicious in %s\n", tick, nodeID, clusterID)
	default:
		fmt.Printf("[FLAGGED] tick %d: %s in %s\n", tick, nodeID, clusterID)
	}
}

// ReportHalt reports a permanent simulator halt (StateInvariantRegression)
func (pr *ProgressReporter) ReportHalt(tick uint64, reason string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "halted",
			"tick":      tick,
			"reason":    reason,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("🛑 HALTED at tick %d: %s\n", tick, reason)
	default:
		fmt.Printf("[HALT] tick %d: %s\n", tick, reason)
	}
}

// ReportRunCompleted reports run completion
func (pr *ProgressReporter) ReportRunCompleted(report *RunReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "run_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printRunSummary(report)
	default:
		pr.printTextSummary(report)
	}
}

// reportText outputs progress in plain text format
func (pr *ProgressReporter) reportText(state LiveRunState) {
	elapsed := time.Since(state.StartTime).Round(time.Second)
	fmt.Printf("[%s] tick=%d clusters=%d flagged=%d | elapsed: %s\n",
		time.Now().Format("15:04:05"),
		state.CurrentTick,
		state.ClusterCount,
		state.FlaggedCount,
		elapsed,
	)
}

// reportJSON outputs progress in JSON format
func (pr *ProgressReporter) reportJSON(state LiveRunState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err)
		return
	}
	fmt.Println(string(data))
}

// reportTUI outputs progress in terminal UI format
func (pr *ProgressReporter) reportTUI(state LiveRunState) {
	pr.clearScreen()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("   VANET Simulation: %s\n", state.ScenarioName)
	fmt.Printf("   Run ID: %s\n", state.RunID)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("📊 Tick: %d\n", state.CurrentTick)
	fmt.Printf("⏱️  Elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Printf("🔗 Clusters: %d\n", state.ClusterCount)
	fmt.Printf("🚩 Flagged: %d\n", state.FlaggedCount)
	fmt.Println()

	if len(state.LatestEvents) > 0 {
		fmt.Printf("Recent events:\n")
		for _, e := range state.LatestEvents {
			fmt.Printf("   • tick %d: %s %s\n", e.Tick, e.Kind, e.ClusterID)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("─", 80))
}

// printRunSummary prints a run summary in TUI format
func (pr *ProgressReporter) printRunSummary(report *RunReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("   RUN SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	statusIcon := "✅"
	statusText := "COMPLETED"
	if !report.Success {
		statusIcon = "🛑"
		statusText = "HALTED"
	}

	fmt.Printf("%s Run %s\n", statusIcon, statusText)
	fmt.Printf("   Scenario: %s\n", report.ScenarioName)
	fmt.Printf("   Run ID: %s\n", report.RunID)
	fmt.Printf("   Duration: %s\n", report.Duration)
	fmt.Printf("   Ticks: %d/%d\n", report.TicksCompleted, report.TicksRequested)
	fmt.Println()

	if len(report.FinalClusters) > 0 {
		fmt.Printf("🔗 Final Clusters (%d):\n", len(report.FinalClusters))
		for _, c := range report.FinalClusters {
			fmt.Printf("   • %s leader=%s members=%d\n", c.ID, c.LeaderID, c.MemberCount)
		}
		fmt.Println()
	}

	if len(report.FlaggedNodes) > 0 {
		fmt.Printf("🚩 Flagged Nodes (%d): %s\n", len(report.FlaggedNodes), strings.Join(report.FlaggedNodes, ", "))
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 80))
}

// printTextSummary prints a run summary in plain text format
func (pr *ProgressReporter) printTextSummary(report *RunReport) {
	status := "COMPLETED"
	if !report.Success {
		status = "HALTED"
	}

	fmt.Printf("\n[RUN SUMMARY] %s\n", status)
	fmt.Printf("  Scenario: %s\n", report.ScenarioName)
	fmt.Printf("  Run ID: %s\n", report.RunID)
	fmt.Printf("  Duration: %s\n", report.Duration)
	fmt.Printf("  Ticks: %d/%d\n", report.TicksCompleted, report.TicksRequested)
	fmt.Printf("  Clusters: %d\n", len(report.FinalClusters))
	fmt.Printf("  Flagged: %d\n", len(report.FlaggedNodes))
	fmt.Println()
}

// clearScreen clears the terminal screen
func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// clearLine clears the current line
func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}
