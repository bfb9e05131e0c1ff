package reporting_test

import (
	"fmt"
	"os"
	"time"

	"github.com/jihwankim/vanet-sim/pkg/core/events"
	"github.com/jihwankim/vanet-sim/pkg/reporting"
)

// Example demonstrates the reporting package usage
func Example() {
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  reporting.LogLevelInfo,
		Format: reporting.LogFormatText,
		Output: os.Stdout,
	})

	logger.Info("simulation starting")
	logger.Info("cluster formed", "cluster_id", "c1", "tick", 1)

	storage, err := reporting.NewStorage("./run-reports", 10, logger)
	if err != nil {
		fmt.Printf("failed to create storage: %v\n", err)
		return
	}
	defer os.RemoveAll("./run-reports")

	report := &reporting.RunReport{
		RunID:          "run-12345",
		ScenarioName:   "highway-convoy",
		StartTime:      time.Now().Add(-5 * time.Minute),
		EndTime:        time.Now(),
		Duration:       "5m0s",
		Status:         reporting.StatusCompleted,
		Success:        true,
		TicksRequested: 500,
		TicksCompleted: 500,
		NodeCount:      12,
		FinalClusters: []reporting.ClusterSummary{
			{ID: "c1", LeaderID: "n4", MemberCount: 6, RelayCount: 1, BoundaryCount: 2},
		},
		EventSummary: events.Summary{
			Counts: map[events.Kind]int{events.ClusterFormed: 1, events.LeaderElected: 1},
			Total:  2,
		},
	}

	path, err := storage.SaveReport(report)
	if err != nil {
		fmt.Printf("failed to save report: %v\n", err)
		return
	}

	fmt.Printf("report saved successfully\n")

	summaries, err := storage.ListReports()
	if err != nil {
		fmt.Printf("failed to list reports: %v\n", err)
		return
	}

	fmt.Printf("found %d report(s)\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s: %s (%s)\n", summary.RunID, summary.ScenarioName, summary.Status)
	}

	loadedReport, err := storage.LoadReport(path)
	if err != nil {
		fmt.Printf("failed to load report: %v\n", err)
		return
	}

	fmt.Printf("loaded report for run: %s\n", loadedReport.RunID)

	formatter := reporting.NewFormatter(logger)

	textPath := "./run-reports/report.txt"
	if err := formatter.GenerateReport(report, reporting.ReportFormatText, textPath); err != nil {
		fmt.Printf("failed to generate text report: %v\n", err)
		return
	}
	fmt.Printf("text report generated\n")

	htmlPath := "./run-reports/report.html"
	if err := formatter.GenerateReport(report, reporting.ReportFormatHTML, htmlPath); err != nil {
		fmt.Printf("failed to generate HTML report: %v\n", err)
		return
	}
	fmt.Printf("HTML report generated\n")

	// Output will vary due to timestamps, so we don't include it
}
