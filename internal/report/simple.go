package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/uatlabs/widgetuat/internal/model"
	"github.com/uatlabs/widgetuat/internal/vision"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables transcript excerpts in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with transcript excerpts.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeResults(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      FEEDBACK WIDGET UAT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Base URL:  %s\n", report.BaseURL))
	sb.WriteString(fmt.Sprintf("Model:     %s\n", report.Model))
	sb.WriteString(fmt.Sprintf("Run Date:  %s\n", report.Timestamp.Format("2006-01-02 15:04:05")))
	sb.WriteString("\n")
}

// writeSummary writes the pass/fail summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	summary := report.Summary

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  TOTAL:     %d\n", summary.TotalTests))
	sb.WriteString(fmt.Sprintf("  PASSED:    %d\n", summary.Passed))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("  PASS RATE: %.1f%%\n", summary.PassRate))
	sb.WriteString("\n")

	if summary.TotalTests > 0 && summary.Failed == 0 {
		sb.WriteString("  ALL TESTS PASSED\n\n")
	} else if summary.Failed > 0 {
		sb.WriteString("  SOME TESTS FAILED\n\n")
	}
}

// writeResults lists each task result.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.RunReport) {
	if len(report.Results) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for i, result := range report.Results {
		status := "PASS"
		if !result.Success {
			status = "FAIL"
		}

		label := result.Page
		if label == "" {
			label = truncateString(strings.TrimSpace(result.Task), 50)
		}
		sb.WriteString(fmt.Sprintf("  [%s] #%d (%s) %s\n", status, i+1, result.Viewport, label))

		if result.Error != "" {
			sb.WriteString(fmt.Sprintf("         Error: %s\n", result.Error))
		}
		if w.verbose && result.History != "" {
			sb.WriteString(fmt.Sprintf("         Result: %s\n", truncateString(strings.TrimSpace(result.History), 200)))
		}
	}
	sb.WriteString("\n")
}

// WriteAnalysis outputs one vision analysis in human-readable format.
func (w *SimpleWriter) WriteAnalysis(result *model.AnalysisResult) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          UI/UX ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if !result.Success {
		sb.WriteString(fmt.Sprintf("  FAILED: %s\n", result.Error))
		if result.Details != "" {
			sb.WriteString(fmt.Sprintf("  Details: %s\n", result.Details))
		}
		sb.WriteString("\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(fmt.Sprintf("Model:          %s\n", result.Model))
	sb.WriteString(fmt.Sprintf("Weighted Score: %.2f / 10\n\n", vision.WeightedScore(result.Analysis)))

	for _, m := range vision.PresentMetrics(result.Analysis.Scores) {
		sb.WriteString(fmt.Sprintf("  %-24s %.1f\n", metricDisplayName(m.Name), m.Value))
	}
	sb.WriteString("\n")

	if len(result.Analysis.ObjectivesAssessment) > 0 {
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\nOBJECTIVES\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n\n")
		for _, oa := range result.Analysis.ObjectivesAssessment {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", oa.Status.String(), oa.Objective))
		}
		sb.WriteString("\n")
	}

	if len(result.Analysis.PriorityRecommendations) > 0 {
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 70))
		sb.WriteString("\n\n")
		for _, rec := range result.Analysis.PriorityRecommendations {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", rec.Priority, rec.Action))
		}
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by widgetuat\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
