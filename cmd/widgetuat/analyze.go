package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uatlabs/widgetuat/internal/config"
	"github.com/uatlabs/widgetuat/internal/content"
	"github.com/uatlabs/widgetuat/internal/database"
	"github.com/uatlabs/widgetuat/internal/log"
	"github.com/uatlabs/widgetuat/internal/model"
	"github.com/uatlabs/widgetuat/internal/report"
	"github.com/uatlabs/widgetuat/internal/vision"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <screenshot>",
		Short: "Grade a screenshot with a vision model",
		Long: `Analyze sends a screenshot to a vision model and grades the page UI/UX.

The model scores usability, visual hierarchy, accessibility, brand
consistency, real estate efficiency, and mobile responsiveness on a 1-10
scale, assesses the page objectives, and lists concrete issues with fixes.

Page objectives come from the objectives file. Without --page, the
screenshot is graded against general UI/UX criteria only.

An API key is required: set LLM_API_KEY or GROQ_API_KEY.

Examples:
  # Grade a screenshot against a configured page's objectives
  widgetuat analyze screenshots/agent_desktop.png --page feedback_widget

  # Grade a mobile screenshot
  widgetuat analyze shot.png --page feedback_widget --viewport mobile

  # Include the rendered page text in the grading context
  widgetuat analyze shot.png --page feedback_widget --fetch

  # Machine-readable output to a file
  widgetuat analyze shot.png --json -o analysis.json`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("page", "p", "",
		"Page key from the objectives file to grade against")
	cmd.Flags().String("viewport", config.ViewportDesktop,
		"Viewport the screenshot was taken at (desktop or mobile)")
	cmd.Flags().StringP("model", "m", config.DefaultModel,
		"Vision model identifier")
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Base URL used with --fetch to load page content")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for the vision API request")
	cmd.Flags().String("content", "",
		"File with the page's rendered text to include in the grading context")
	cmd.Flags().Bool("fetch", false,
		"Fetch the page over HTTP and include its text in the grading context")
	cmd.Flags().StringP("config", "c", "",
		"Objectives file path (default: .widgetuat.yaml in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "M", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the analysis to the specified file instead of stdout")
	cmd.Flags().Bool("no-save", false,
		"Do not save the analysis to the history database")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	screenshotPath := args[0]

	cfg, err := buildAnalyzeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Resolve the page objective and viewport
	var page config.PageObjective
	if cfg.Page != "" {
		page, _ = cfg.Objectives.Page(cfg.Page)
	}

	viewportName, err := cmd.Flags().GetString("viewport")
	if err != nil {
		return err
	}
	viewport, ok := cfg.Objectives.Viewport(viewportName)
	if !ok {
		return fmt.Errorf("unknown viewport %q", viewportName)
	}

	pageText, err := loadPageContent(ctx, cmd, cfg, page)
	if err != nil {
		return err
	}

	analyzer := vision.NewAnalyzer(
		vision.WithAPIKey(cfg.APIKey),
		vision.WithAPIURL(cfg.VisionAPIURL),
		vision.WithModel(cfg.Model),
		vision.WithTimeout(cfg.Timeout),
		vision.WithLogger(logger),
	)

	result := analyzer.AnalyzeScreenshot(ctx, screenshotPath, page, viewportName, viewport, pageText)

	if err := outputAnalysis(cfg, &result); err != nil {
		return err
	}

	if cfg.SaveToDB && result.Success {
		if err := saveAnalysis(ctx, cfg, &result, logger); err != nil {
			logger.Error("failed to save analysis", "error", err)
		}
	}

	if !result.Success {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}
	return nil
}

// buildAnalyzeConfig creates a Config from analyze command flags.
func buildAnalyzeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Page, err = cmd.Flags().GetString("page")
	if err != nil {
		return nil, err
	}
	cfg.Model, err = cmd.Flags().GetString("model")
	if err != nil {
		return nil, err
	}
	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ApplyEnv()

	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load objectives file %s: %w", configPath, err)
		}
		cfg.Objectives = file

		if file.BaseURL != "" && !cmd.Flags().Changed("base-url") {
			cfg.BaseURL = file.BaseURL
		}
		if file.Model != "" && cfg.Model == config.DefaultModel {
			cfg.Model = file.Model
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("objectives file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// loadPageContent resolves the page text to include in the grading context,
// either from a --content file or by fetching the page with --fetch.
func loadPageContent(ctx context.Context, cmd *cobra.Command, cfg *config.Config, page config.PageObjective) (string, error) {
	contentFile, err := cmd.Flags().GetString("content")
	if err != nil {
		return "", err
	}
	fetch, err := cmd.Flags().GetBool("fetch")
	if err != nil {
		return "", err
	}

	if contentFile != "" {
		data, err := os.ReadFile(contentFile) //nolint:gosec // User-provided content path is intentional
		if err != nil {
			return "", fmt.Errorf("failed to read content file: %w", err)
		}
		return string(data), nil
	}

	if fetch {
		pageURL := strings.TrimRight(cfg.BaseURL, "/") + page.Path
		fetcher := content.NewFetcher(cfg.Timeout)
		text, err := fetcher.FetchText(ctx, pageURL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch page content from %s: %w", pageURL, err)
		}
		return text, nil
	}

	return "", nil
}

// outputAnalysis writes the analysis result in the requested format.
func outputAnalysis(cfg *config.Config, result *model.AnalysisResult) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Analyses quote page content, so keep files owner-readable only
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.WriteAnalysis(result)
	return err
}

// saveAnalysis persists the analysis result to the history database.
func saveAnalysis(ctx context.Context, cfg *config.Config, result *model.AnalysisResult, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	score := 0.0
	if result.Analysis != nil {
		score = vision.WeightedScore(result.Analysis)
	}
	if err := db.SaveAnalysis(ctx, result, score); err != nil {
		return err
	}

	logger.Info("analysis saved to database", "digest", result.ScreenshotDigest)
	return nil
}
