package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uatlabs/widgetuat/internal/config"
	"github.com/uatlabs/widgetuat/internal/database"
	"github.com/uatlabs/widgetuat/internal/model"
)

// Constants for quality direction and summary messages.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares run results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [base-url]",
		Short: "Compare run results with historical data",
		Long: `Compare displays differences between the current and previous UAT runs.

This command retrieves historical run data from the database and shows:
- Tests that started failing since the previous run
- Tests that were fixed since the previous run
- The change in pass rate

The comparison requires at least two runs in the database for the specified
base URL. Use 'widgetuat run' to perform runs and save results.

Examples:
  # Compare the latest two runs for the default site
  widgetuat compare

  # Compare the latest two runs for a specific site
  widgetuat compare https://staging.example.com

  # List run history for a site
  widgetuat compare --list https://staging.example.com

  # Compare the latest run with a specific historical run
  widgetuat compare --with-run-id 1b0a... https://staging.example.com

  # List all sites with stored runs
  widgetuat compare --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List run history for the specified base URL")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all sites with stored runs in the database")

	// Comparison target flags
	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	baseURL := config.DefaultBaseURL
	if len(args) > 0 {
		baseURL = args[0]
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSites {
		return listStoredSites(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db, baseURL)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	withRunID, err := cmd.Flags().GetString("with-run-id")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, baseURL, withRunID, jsonOutput, markdownOutput)
}

// listStoredSites lists all base URLs that have run records in the database.
func listStoredSites(ctx context.Context, db *database.RunDB) error {
	sites, err := db.ListBaseURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No runs found in the database.")
		fmt.Println("\nUse 'widgetuat run' to run tests and save results.")
		return nil
	}

	fmt.Printf("Sites with stored runs (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  • %s\n", site)
	}
	fmt.Println("\nUse 'widgetuat compare --list <base-url>' to see run history for a site.")

	return nil
}

// listRunHistory lists all run records for a specific base URL.
func listRunHistory(ctx context.Context, db *database.RunDB, baseURL string) error {
	history, err := db.GetRunHistory(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(history) == 0 {
		fmt.Printf("No run history found for %s\n", baseURL)
		fmt.Println("\nUse 'widgetuat run' to test this site.")
		return nil
	}

	fmt.Printf("Run history for %s (%d runs):\n\n", baseURL, len(history))
	fmt.Printf("  %-36s  %-20s  %s\n", "Run ID", "Date", "Result")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, meta := range history {
		fmt.Printf("  %-36s  %-20s  %d/%d passed (%.1f%%)\n",
			meta.RunID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Summary.Passed,
			meta.Summary.TotalTests,
			meta.Summary.PassRate,
		)
	}

	fmt.Println("\nUse 'widgetuat compare <base-url>' to compare the latest two runs.")
	fmt.Println("Use 'widgetuat compare --with-run-id <id> <base-url>' to compare with a specific run.")

	return nil
}

// runComparison performs the actual comparison between run reports.
func runComparison(ctx context.Context, db *database.RunDB, baseURL, withRunID string, jsonOutput, markdownOutput bool) error {
	runs, err := db.GetLatestRuns(ctx, baseURL, 2)
	if err != nil {
		return fmt.Errorf("failed to get runs: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no run history found for %s", baseURL)
	}
	if len(runs) < 2 && withRunID == "" {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	// Latest run is always the current one
	currentRun := runs[0]

	var previousRun *model.RunReport
	if withRunID != "" {
		previousRun, err = db.GetRunByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run %s: %w", withRunID, err)
		}
		if previousRun == nil {
			return fmt.Errorf("run %s not found", withRunID)
		}
		if previousRun.BaseURL != baseURL {
			return fmt.Errorf("run %s belongs to %s, not %s", withRunID, previousRun.BaseURL, baseURL)
		}
	} else {
		previousRun = runs[1]
	}

	comparison := compareRuns(previousRun, currentRun)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two run reports.
type ComparisonResult struct {
	// BaseURL is the tested site.
	BaseURL string `json:"base_url"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunSummary `json:"current_run"`

	// NewlyFailing contains test labels that passed before and fail now.
	NewlyFailing []string `json:"newly_failing,omitempty"`

	// NewlyFixed contains test labels that failed before and pass now.
	NewlyFixed []string `json:"newly_fixed,omitempty"`

	// AddedTests contains test labels present only in the current run.
	AddedTests []string `json:"added_tests,omitempty"`

	// RemovedTests contains test labels present only in the previous run.
	RemovedTests []string `json:"removed_tests,omitempty"`

	// UnchangedCount is the number of tests with the same outcome in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// PassRateDelta is the change in pass rate in percentage points.
	PassRateDelta float64 `json:"pass_rate_delta"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// Timestamp is when the run was performed.
	Timestamp time.Time `json:"timestamp"`

	// TotalTests is the number of tests in the run.
	TotalTests int `json:"total_tests"`

	// Passed is the number of passing tests.
	Passed int `json:"passed"`

	// Failed is the number of failing tests.
	Failed int `json:"failed"`

	// PassRate is the percentage of passing tests.
	PassRate float64 `json:"pass_rate"`
}

// compareRuns compares two run reports and generates a comparison result.
func compareRuns(previous, current *model.RunReport) *ComparisonResult {
	result := &ComparisonResult{
		BaseURL:     current.BaseURL,
		PreviousRun: runSummary(previous),
		CurrentRun:  runSummary(current),
	}

	previousOutcomes := make(map[string]bool)
	for _, r := range previous.Results {
		previousOutcomes[testLabel(r)] = r.Success
	}
	currentOutcomes := make(map[string]bool)
	for _, r := range current.Results {
		currentOutcomes[testLabel(r)] = r.Success
	}

	for label, passed := range currentOutcomes {
		prevPassed, existed := previousOutcomes[label]
		switch {
		case !existed:
			result.AddedTests = append(result.AddedTests, label)
		case prevPassed && !passed:
			result.NewlyFailing = append(result.NewlyFailing, label)
		case !prevPassed && passed:
			result.NewlyFixed = append(result.NewlyFixed, label)
		default:
			result.UnchangedCount++
		}
	}
	for label := range previousOutcomes {
		if _, exists := currentOutcomes[label]; !exists {
			result.RemovedTests = append(result.RemovedTests, label)
		}
	}

	result.PassRateDelta = result.CurrentRun.PassRate - result.PreviousRun.PassRate
	switch {
	case result.PassRateDelta > 0:
		result.Direction = directionImproved
	case result.PassRateDelta < 0:
		result.Direction = directionWorsened
	default:
		result.Direction = directionUnchanged
	}

	return result
}

// runSummary extracts comparison metadata from a run report.
func runSummary(report *model.RunReport) RunSummary {
	return RunSummary{
		Timestamp:  report.Timestamp,
		TotalTests: report.Summary.TotalTests,
		Passed:     report.Summary.Passed,
		Failed:     report.Summary.Failed,
		PassRate:   report.Summary.PassRate,
	}
}

// testLabel generates a stable key for a test result for comparison purposes.
// Page tests are keyed by page and viewport; workflow and custom tasks by
// their first instruction line.
func testLabel(r model.UATResult) string {
	name := r.PageKey
	if name == "" {
		name = strings.SplitN(strings.TrimSpace(r.Task), "\n", 2)[0]
	}
	return name + " (" + r.Viewport + ")"
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Run Comparison: %s\n\n", result.BaseURL)

	fmt.Println("## Summary")
	fmt.Printf("\n**Status:** %s\n\n", formatDirection(result.Direction))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.Timestamp.Format("2006-01-02 15:04"),
		result.CurrentRun.Timestamp.Format("2006-01-02 15:04"))
	fmt.Printf("| Passed | %d | %d | %s |\n",
		result.PreviousRun.Passed,
		result.CurrentRun.Passed,
		formatDelta(result.CurrentRun.Passed-result.PreviousRun.Passed))
	fmt.Printf("| Failed | %d | %d | %s |\n",
		result.PreviousRun.Failed,
		result.CurrentRun.Failed,
		formatDelta(result.CurrentRun.Failed-result.PreviousRun.Failed))
	fmt.Printf("| Pass Rate | %.1f%% | %.1f%% | %+.1f pts |\n",
		result.PreviousRun.PassRate,
		result.CurrentRun.PassRate,
		result.PassRateDelta)

	if len(result.NewlyFailing) > 0 {
		fmt.Printf("\n## Newly Failing (%d)\n\n", len(result.NewlyFailing))
		for _, label := range result.NewlyFailing {
			fmt.Printf("- %s\n", label)
		}
	}

	if len(result.NewlyFixed) > 0 {
		fmt.Printf("\n## Newly Fixed (%d)\n\n", len(result.NewlyFixed))
		for _, label := range result.NewlyFixed {
			fmt.Printf("- ~~%s~~\n", label)
		}
	}

	if len(result.AddedTests) > 0 {
		fmt.Printf("\n## Added Tests (%d)\n\n", len(result.AddedTests))
		for _, label := range result.AddedTests {
			fmt.Printf("- %s\n", label)
		}
	}

	if len(result.RemovedTests) > 0 {
		fmt.Printf("\n## Removed Tests (%d)\n\n", len(result.RemovedTests))
		for _, label := range result.RemovedTests {
			fmt.Printf("- %s\n", label)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d tests unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Run Comparison: %s\n", result.BaseURL)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nStatus: %s\n", formatDirection(result.Direction))

	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Println("\nResults Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Passed",
		result.PreviousRun.Passed, result.CurrentRun.Passed,
		formatDelta(result.CurrentRun.Passed-result.PreviousRun.Passed))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Failed",
		result.PreviousRun.Failed, result.CurrentRun.Failed,
		formatDelta(result.CurrentRun.Failed-result.PreviousRun.Failed))
	fmt.Printf("  %-10s  %-9.1f%%  %-9.1f%%  %+.1f pts\n", "Pass Rate",
		result.PreviousRun.PassRate, result.CurrentRun.PassRate,
		result.PassRateDelta)

	if len(result.NewlyFailing) > 0 {
		fmt.Printf("\nNewly Failing (%d):\n", len(result.NewlyFailing))
		for _, label := range result.NewlyFailing {
			fmt.Printf("  [+] %s\n", label)
		}
	}

	if len(result.NewlyFixed) > 0 {
		fmt.Printf("\nNewly Fixed (%d):\n", len(result.NewlyFixed))
		for _, label := range result.NewlyFixed {
			fmt.Printf("  [-] %s\n", label)
		}
	}

	if len(result.AddedTests) > 0 {
		fmt.Printf("\nAdded Tests (%d):\n", len(result.AddedTests))
		for _, label := range result.AddedTests {
			fmt.Printf("  [*] %s\n", label)
		}
	}

	if len(result.RemovedTests) > 0 {
		fmt.Printf("\nRemoved Tests (%d):\n", len(result.RemovedTests))
		for _, label := range result.RemovedTests {
			fmt.Printf("  [*] %s\n", label)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d tests\n", result.UnchangedCount)
	}

	return nil
}

// formatDirection formats the quality change direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (pass rate increased)"
	case directionWorsened:
		return "WORSENED (pass rate decreased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
