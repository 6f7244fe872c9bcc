package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uatlabs/widgetuat/internal/agent"
	"github.com/uatlabs/widgetuat/internal/config"
	"github.com/uatlabs/widgetuat/internal/database"
	"github.com/uatlabs/widgetuat/internal/log"
	"github.com/uatlabs/widgetuat/internal/report"
	"github.com/uatlabs/widgetuat/internal/runner"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run UAT tests against the feedback widget",
		Long: `Run executes user acceptance tests against the feedback widget.

Browser tasks are delegated to the browser-agent service configured via
--agent-url or WIDGETUAT_AGENT_URL. Each task is a natural-language
description that the agent executes in a real browser.

By default, the submit workflow runs on both desktop and mobile viewports.

Examples:
  # Run the default submit workflow
  widgetuat run

  # Run a built-in workflow (submit, verify, or full)
  widgetuat run --workflow full

  # Run a single configured page test
  widgetuat run --page feedback_widget

  # Run all configured page tests, three at a time
  widgetuat run --all --batch 3

  # Run a custom natural-language task
  widgetuat run --task "Submit feedback with an empty message and check the error"

  # Target a staging deployment with a visible browser window
  widgetuat run --base-url https://staging.example.com --headed`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	// Target flags
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Base URL of the site under test")
	cmd.Flags().String("agent-url", "",
		"Base URL of the browser-agent service (or WIDGETUAT_AGENT_URL)")
	cmd.Flags().StringP("model", "m", config.DefaultModel,
		"LLM model identifier for the browser agent")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Deadline for each browser-agent task")
	cmd.Flags().Bool("headed", false,
		"Run the browser with a visible window instead of headless")

	// Test selection flags (mutually exclusive)
	cmd.Flags().String("task", "",
		"Custom natural-language task to run instead of a workflow")
	cmd.Flags().StringP("workflow", "w", "",
		"Built-in workflow to run: submit, verify, or full")
	cmd.Flags().StringP("page", "p", "",
		"Run the test for a single page key from the objectives file")
	cmd.Flags().BoolP("all", "a", false,
		"Run every configured page test")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of page tests to run concurrently with --all")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Objectives file path (default: .widgetuat.yaml in current or home directory)")

	// Output flags
	cmd.Flags().String("reports-dir", config.DefaultReportsDir,
		"Directory for timestamped report files")
	cmd.Flags().String("screenshots-dir", config.DefaultScreenshotsDir,
		"Directory where the browser agent saves screenshots")
	cmd.Flags().Bool("no-save", false,
		"Do not save the run to the history database")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel the run on SIGINT or SIGTERM so partial results still get
	// reported
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runUAT(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildRunConfig creates a Config from cobra command flags, environment
// variables, and the objectives file. Precedence is flags, then environment,
// then the objectives file, then defaults.
func buildRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, err
	}
	cfg.AgentURL, err = cmd.Flags().GetString("agent-url")
	if err != nil {
		return nil, err
	}
	cfg.Model, err = cmd.Flags().GetString("model")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.Headed, err = cmd.Flags().GetBool("headed")
	if err != nil {
		return nil, err
	}
	cfg.Task, err = cmd.Flags().GetString("task")
	if err != nil {
		return nil, err
	}
	cfg.Workflow, err = cmd.Flags().GetString("workflow")
	if err != nil {
		return nil, err
	}
	cfg.Page, err = cmd.Flags().GetString("page")
	if err != nil {
		return nil, err
	}
	cfg.All, err = cmd.Flags().GetBool("all")
	if err != nil {
		return nil, err
	}
	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ReportsDir, err = cmd.Flags().GetString("reports-dir")
	if err != nil {
		return nil, err
	}
	cfg.ScreenshotsDir, err = cmd.Flags().GetString("screenshots-dir")
	if err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	// Environment fills credentials and anything still at its default
	cfg.ApplyEnv()

	// Load page objectives.
	// If the user explicitly specified a config file path, error if not found.
	// If no path specified, silently run with built-in workflows only.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load objectives file %s: %w", configPath, err)
		}
		cfg.Objectives = file

		// File values apply only where neither flag nor environment did
		if file.BaseURL != "" && !cmd.Flags().Changed("base-url") {
			cfg.BaseURL = file.BaseURL
		}
		if file.AgentURL != "" && cfg.AgentURL == "" {
			cfg.AgentURL = file.AgentURL
		}
		if file.Model != "" && cfg.Model == config.DefaultModel {
			cfg.Model = file.Model
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("objectives file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// newBrowserAgent builds the agent client with the configured per-task
// deadline.
func newBrowserAgent(cfg *config.Config, logger *slog.Logger) *agent.HTTPAgent {
	return agent.NewHTTPAgent(cfg.AgentURL,
		agent.WithTimeout(cfg.Timeout),
		agent.WithLogger(logger),
	)
}

// runUAT executes the UAT run and writes reports.
func runUAT(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting UAT run",
		"baseURL", cfg.BaseURL,
		"model", cfg.Model,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.RunDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	browserAgent := newBrowserAgent(cfg, logger)

	r := runner.NewRunner(cfg, browserAgent, runner.WithLogger(logger))

	runReport, runErr := r.Run(ctx)
	if runErr != nil && len(runReport.Results) == 0 {
		// Nothing ran; there is no report worth writing
		return runErr
	}

	// Console summary
	console := report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose))
	if _, err := console.Write(runReport); err != nil {
		logger.Error("failed to write console report", "error", err)
	}

	// Timestamped report files
	jsonPath, mdPath, err := report.WriteRunFiles(runReport, cfg.ReportsDir, r.Timestamp(), getVersion())
	if err != nil {
		logger.Error("failed to write report files", "error", err)
	} else {
		fmt.Printf("Reports written:\n  %s\n  %s\n", jsonPath, mdPath)
	}

	// Run history
	if db != nil {
		runID, err := db.SaveRunReport(ctx, runReport)
		if err != nil {
			logger.Error("failed to save run report", "error", err)
		} else {
			logger.Info("run report saved to database", "runID", runID)
		}
	}

	if runErr != nil {
		return runErr
	}
	if runReport.Summary.Failed > 0 {
		return errors.New("some tests failed")
	}
	return nil
}
