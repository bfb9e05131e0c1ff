package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ReportFormat represents the report output format
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from run data
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{
		logger: logger,
	}
}

// GenerateReport generates a report in the specified format
func (f *Formatter) GenerateReport(report *RunReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatHTML:
		return f.generateHTMLReport(report, outputPath)
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		// Already handled by storage
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// generateHTMLReport generates an HTML report
func (f *Formatter) generateHTMLReport(report *RunReport, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"statusClass": func(success bool) string {
			if success {
				return "pass"
			}
			return "fail"
		},
	}).Parse(htmlTemplate)

	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}

	f.logger.Info("HTML report generated", "path", outputPath)
	return nil
}

// generateTextReport generates a plain text report
func (f *Formatter) generateTextReport(report *RunReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   SIMULATION RUN REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	status := "COMPLETED"
	if !report.Success {
		status = "HALTED"
	}

	buf.WriteString("RUN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", status))
	buf.WriteString(fmt.Sprintf("Run ID:       %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("Scenario:     %s\n", report.ScenarioName))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	buf.WriteString(fmt.Sprintf("Ticks:        %d/%d\n", report.TicksCompleted, report.TicksRequested))
	buf.WriteString(fmt.Sprintf("Nodes:        %d\n", report.NodeCount))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString("\n")

	if len(report.FinalClusters) > 0 {
		buf.WriteString("FINAL CLUSTERS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, c := range report.FinalClusters {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.ID))
			buf.WriteString(fmt.Sprintf("   Leader:      %s\n", c.LeaderID))
			if c.CoLeaderID != "" {
				buf.WriteString(fmt.Sprintf("   Co-Leader:   %s\n", c.CoLeaderID))
			}
			buf.WriteString(fmt.Sprintf("   Members:     %d\n", c.MemberCount))
			buf.WriteString(fmt.Sprintf("   Relays:      %d\n", c.RelayCount))
			buf.WriteString(fmt.Sprintf("   Boundaries:  %d\n", c.BoundaryCount))
			buf.WriteString(fmt.Sprintf("   Authorities: %d\n", c.AuthorityCount))
			buf.WriteString("\n")
		}
	}

	if len(report.FlaggedNodes) > 0 {
		buf.WriteString("FLAGGED MALICIOUS NODES\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		buf.WriteString(strings.Join(report.FlaggedNodes, ", ") + "\n\n")
	}

	buf.WriteString("EVENT SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(report.EventSummary.String())
	buf.WriteString("\n")

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("text report generated", "path", outputPath)
	return nil
}

// CompareReports generates a comparison report for multiple simulation runs,
// useful for checking a scenario's behavior across different seeds.
func (f *Formatter) CompareReports(reports []*RunReport, outputPath string) error {
	if len(reports) < 2 {
		return fmt.Errorf("need at least 2 reports to compare")
	}

	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   RUN COMPARISON\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartTime.Before(reports[j].StartTime)
	})

	buf.WriteString(fmt.Sprintf("%-20s %-15s %-10s %-10s %-10s\n",
		"Run ID", "Scenario", "Status", "Ticks", "Clusters"))
	buf.WriteString(strings.Repeat("-", 80) + "\n")

	for _, report := range reports {
		status := "COMPLETED"
		if !report.Success {
			status = "HALTED"
		}
		buf.WriteString(fmt.Sprintf("%-20s %-15s %-10s %-10d %d\n",
			report.RunID[:min(20, len(report.RunID))],
			report.ScenarioName[:min(15, len(report.ScenarioName))],
			status,
			report.TicksCompleted,
			len(report.FinalClusters),
		))
	}
	buf.WriteString("\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write comparison report: %w", err)
	}

	f.logger.Info("comparison report generated", "path", outputPath)
	return nil
}

// GetReportPath generates a report file path based on a run report and format
func GetReportPath(report *RunReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	ext := string(format)
	filename := fmt.Sprintf("report-%s-%s.%s", timestamp, report.RunID, ext)
	return filepath.Join(outputDir, filename)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Simulation Run Report - {{.RunID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 30px;
        }
        h1, h2 {
            color: #2c3e50;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 8px 8px 0 0;
            margin: -30px -30px 30px -30px;
        }
        .status {
            display: inline-block;
            padding: 5px 15px;
            border-radius: 4px;
            font-weight: bold;
            margin-left: 10px;
        }
        .status.pass { background-color: #27ae60; color: white; }
        .status.fail { background-color: #e74c3c; color: white; }
        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .info-box { background-color: #ecf0f1; padding: 15px; border-radius: 4px; }
        .info-label { font-weight: bold; color: #7f8c8d; font-size: 0.9em; margin-bottom: 5px; }
        .info-value { font-size: 1.1em; color: #2c3e50; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #3498db; color: white; }
        tr:hover { background-color: #f5f5f5; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Simulation Run Report</h1>
            <p>{{.ScenarioName}}</p>
            <p>Run ID: {{.RunID}}</p>
        </div>

        <h2>Run Summary<span class="status {{statusClass .Success}}">{{if .Success}}COMPLETED{{else}}HALTED{{end}}</span></h2>
        <div class="info-grid">
            <div class="info-box">
                <div class="info-label">Start Time</div>
                <div class="info-value">{{formatTime .StartTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">End Time</div>
                <div class="info-value">{{formatTime .EndTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Ticks</div>
                <div class="info-value">{{.TicksCompleted}} / {{.TicksRequested}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Nodes</div>
                <div class="info-value">{{.NodeCount}}</div>
            </div>
        </div>

        {{if .FinalClusters}}
        <h2>Final Clusters</h2>
        <table>
            <thead>
                <tr><th>ID</th><th>Leader</th><th>Members</th><th>Relays</th><th>Boundaries</th></tr>
            </thead>
            <tbody>
                {{range .FinalClusters}}
                <tr>
                    <td>{{.ID}}</td>
                    <td>{{.LeaderID}}</td>
                    <td>{{.MemberCount}}</td>
                    <td>{{.RelayCount}}</td>
                    <td>{{.BoundaryCount}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        {{if .FlaggedNodes}}
        <h2>Flagged Malicious Nodes</h2>
        <ul>
            {{range .FlaggedNodes}}<li>{{.}}</li>{{end}}
        </ul>
        {{end}}

        {{if .Errors}}
        <h2>Errors</h2>
        <ul>
            {{range .Errors}}<li>{{.}}</li>{{end}}
        </ul>
        {{end}}

        <p style="text-align: center; color: #7f8c8d; margin-top: 30px;">
            Generated {{formatTime .EndTime}}
        </p>
    </div>
</body>
</html>
`
