package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/uatlabs/widgetuat/internal/model"
	"github.com/uatlabs/widgetuat/internal/vision"
)

// Display truncation limits for Markdown output. Tasks and transcripts can
// run to thousands of characters; reports show an excerpt and point at the
// JSON file for the rest.
const (
	maxTaskDisplay       = 100
	maxTranscriptDisplay = 500
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeResults(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Feedback Widget UAT Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", report.Timestamp.Format("2006-01-02 15:04:05")},
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Model", "`" + report.Model + "`"},
		},
	})
	md.PlainText("")
}

// writeSummary writes the pass/fail summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	summary := report.Summary

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Tests", strconv.Itoa(summary.TotalTests)},
			{"Passed", strconv.Itoa(summary.Passed)},
			{"Failed", strconv.Itoa(summary.Failed)},
			{"Pass Rate", fmt.Sprintf("%.1f%%", summary.PassRate)},
		},
	})
	md.PlainText("")

	if summary.TotalTests > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the pass/fail split.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Test Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.Passed > 0 {
		chart.LabelAndIntValue("Passed", uint64(summary.Passed))
	}
	if summary.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert keyed to the pass rate.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.Summary) {
	switch {
	case summary.TotalTests == 0:
		md.Note("No tests were run.")
	case summary.Failed == 0:
		md.Tip("All tests passed.")
	case summary.PassRate >= 80:
		md.Note(fmt.Sprintf("%d test(s) failed. Review the results below.", summary.Failed))
	case summary.PassRate >= 50:
		md.Importantf("%d of %d tests failed. The widget has notable problems.", summary.Failed, summary.TotalTests)
	case summary.Passed > 0:
		md.Warningf("Most tests failed (%d of %d). The widget is likely broken.", summary.Failed, summary.TotalTests)
	default:
		md.Cautionf("Every test failed (%d). Check that the site and the browser-agent service are reachable.", summary.Failed)
	}
	md.PlainText("")
}

// writeResults writes one section per task result.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Results")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No results.")
		md.PlainText("")
		return
	}

	for i, result := range report.Results {
		status := "✅"
		if !result.Success {
			status = "❌"
		}

		md.H3(fmt.Sprintf("%s Test %d (%s)", status, i+1, result.Viewport))
		md.PlainText("")

		if result.Page != "" {
			md.PlainTextf("**Page**: %s", result.Page)
			md.PlainText("")
		}
		md.PlainTextf("**Task**: %s...", truncateString(strings.TrimSpace(result.Task), maxTaskDisplay))
		md.PlainText("")

		if result.Error != "" {
			md.PlainTextf("**Error**: %s", result.Error)
			md.PlainText("")
		}
		if result.History != "" {
			md.PlainTextf("**Result**: %s...", truncateString(strings.TrimSpace(result.History), maxTranscriptDisplay))
			md.PlainText("")
		}

		md.HorizontalRule()
		md.PlainText("")
	}
}

// WriteAnalysis outputs one vision analysis in Markdown format.
func (w *MarkdownWriter) WriteAnalysis(result *model.AnalysisResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("UI/UX Analysis")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", result.Timestamp.Format("2006-01-02 15:04:05")},
			{"Model", "`" + result.Model + "`"},
			{"Screenshot Digest", "`" + truncateString(result.ScreenshotDigest, 16) + "`"},
		},
	})
	md.PlainText("")

	if !result.Success {
		md.Cautionf("Analysis failed: %s", result.Error)
		if result.Details != "" {
			md.PlainText("")
			md.CodeBlocks(markdown.SyntaxHighlightText, result.Details)
		}
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	w.writeScores(md, result.Analysis)
	w.writeObjectives(md, result.Analysis)
	w.writeIssues(md, result.Analysis)
	w.writeFindings(md, result.Analysis)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeScores writes the weighted score and per-metric table.
func (w *MarkdownWriter) writeScores(md *markdown.Markdown, analysis *model.Analysis) {
	md.H2("Scores")
	md.PlainText("")
	md.PlainTextf("**Weighted Score**: %.2f / 10", vision.WeightedScore(analysis))
	md.PlainText("")

	metrics := vision.PresentMetrics(analysis.Scores)
	if len(metrics) == 0 {
		md.PlainText("The model returned no scores.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(metrics))
	for i, m := range metrics {
		weight := "-"
		if m.Weight > 0 {
			weight = fmt.Sprintf("%.0f%%", m.Weight*100)
		}
		rows[i] = []string{metricDisplayName(m.Name), fmt.Sprintf("%.1f", m.Value), weight}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Score", "Weight"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeObjectives writes the per-objective verdict table.
func (w *MarkdownWriter) writeObjectives(md *markdown.Markdown, analysis *model.Analysis) {
	if len(analysis.ObjectivesAssessment) == 0 {
		return
	}

	md.H2("Objectives")
	md.PlainText("")

	rows := make([][]string, len(analysis.ObjectivesAssessment))
	for i, oa := range analysis.ObjectivesAssessment {
		rows[i] = []string{
			truncateString(oa.Objective, 60),
			oa.Status.String(),
			truncateString(oa.Notes, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Objective", "Status", "Notes"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeIssues writes the issues table.
func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, analysis *model.Analysis) {
	md.H2("Issues")
	md.PlainText("")

	if len(analysis.Issues) == 0 {
		md.PlainText("No issues reported.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(analysis.Issues))
	for i, issue := range analysis.Issues {
		rows[i] = []string{
			issue.Severity,
			truncateString(issue.Element, 30),
			truncateString(issue.Problem, 50),
			truncateString(issue.Fix, 50),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Element", "Problem", "Fix"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes positive findings and prioritized recommendations.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, analysis *model.Analysis) {
	if len(analysis.PositiveFindings) > 0 {
		md.H2("Positive Findings")
		md.PlainText("")
		md.BulletList(analysis.PositiveFindings...)
		md.PlainText("")
	}

	if len(analysis.PriorityRecommendations) > 0 {
		md.H2("Priority Recommendations")
		md.PlainText("")
		items := make([]string, len(analysis.PriorityRecommendations))
		for i, rec := range analysis.PriorityRecommendations {
			item := rec.Action
			if rec.ExpectedImpact != "" {
				item += " (" + rec.ExpectedImpact + ")"
			}
			items[i] = item
		}
		md.OrderedList(items...)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by widgetuat*")
}

// metricDisplayName converts a snake_case metric key into a title for
// display, e.g. "visual_hierarchy" becomes "Visual Hierarchy".
func metricDisplayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// truncateString truncates a string to maxLen bytes with ellipsis, cutting
// on a rune boundary.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	if maxLen > 3 {
		cut = maxLen - 3
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if maxLen <= 3 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
