package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uatlabs/widgetuat/internal/agent"
	"github.com/uatlabs/widgetuat/internal/config"
)

// TestNewRunCmd tests the run command creation.
func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "run" {
			t.Errorf("expected use 'run', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags with defaults", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name     string
			expected string
		}{
			{"base-url", config.DefaultBaseURL},
			{"model", config.DefaultModel},
			{"agent-url", ""},
			{"workflow", ""},
			{"page", ""},
			{"task", ""},
			{"all", "false"},
			{"batch", "1"},
			{"headed", "false"},
			{"reports-dir", config.DefaultReportsDir},
			{"screenshots-dir", config.DefaultScreenshotsDir},
			{"no-save", "false"},
		}

		for _, tc := range testCases {
			flag := cmd.Flags().Lookup(tc.name)
			if flag == nil {
				t.Errorf("expected flag %q", tc.name)
				continue
			}
			if flag.DefValue != tc.expected {
				t.Errorf("flag %q default = %q, expected %q", tc.name, flag.DefValue, tc.expected)
			}
		}
	})
}

// TestNewBrowserAgentTimeout tests that the configured per-task deadline
// reaches the agent client instead of the client's own default.
func TestNewBrowserAgentTimeout(t *testing.T) {
	t.Parallel()

	// The service answers successfully, but slower than the deadline.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"success":true,"result":"ok"}`)); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	cfg := config.NewConfig()
	cfg.AgentURL = server.URL
	cfg.Timeout = 50 * time.Millisecond

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ag := newBrowserAgent(cfg, logger)

	start := time.Now()
	_, err := ag.Execute(context.Background(), agent.Task{Instructions: "check the widget"})
	if err == nil {
		t.Fatal("expected a deadline error from the slow agent service")
	}
	if elapsed := time.Since(start); elapsed >= 500*time.Millisecond {
		t.Errorf("task waited %s, expected the 50ms deadline to cut it short", elapsed)
	}
}

// TestBuildRunConfig tests config assembly from flags and the objectives file.
func TestBuildRunConfig(t *testing.T) {
	t.Run("flags populate the config", func(t *testing.T) {
		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{
			"--base-url", "https://staging.example.com",
			"--workflow", "verify",
			"--batch", "3",
			"--timeout", "30s",
			"--no-save",
		}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("buildRunConfig() error: %v", err)
		}

		if cfg.BaseURL != "https://staging.example.com" {
			t.Errorf("BaseURL = %q", cfg.BaseURL)
		}
		if cfg.Workflow != "verify" {
			t.Errorf("Workflow = %q", cfg.Workflow)
		}
		if cfg.BatchSize != 3 {
			t.Errorf("BatchSize = %d", cfg.BatchSize)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("Timeout = %s", cfg.Timeout)
		}
		if cfg.SaveToDB {
			t.Error("SaveToDB should be false with --no-save")
		}
	})

	t.Run("explicit missing objectives file is an error", func(t *testing.T) {
		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatal(err)
		}

		_, err := buildRunConfig(cmd)
		if err == nil {
			t.Fatal("expected error for missing objectives file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %q", err.Error())
		}
	})

	t.Run("objectives file fills base URL unless flag set", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "uat.yaml")
		content := "base_url: https://file.example.com\npages:\n  demo:\n    title: Demo\n    path: /\n"
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		// File wins when the flag is untouched
		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", configPath}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("buildRunConfig() error: %v", err)
		}
		if cfg.BaseURL != "https://file.example.com" {
			t.Errorf("BaseURL = %q, expected file value", cfg.BaseURL)
		}
		if _, ok := cfg.Objectives.Page("demo"); !ok {
			t.Error("expected page from objectives file")
		}

		// Flag wins when set
		cmd = NewRunCmd()
		if err := cmd.ParseFlags([]string{"--config", configPath, "--base-url", "https://flag.example.com"}); err != nil {
			t.Fatal(err)
		}
		cfg, err = buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("buildRunConfig() error: %v", err)
		}
		if cfg.BaseURL != "https://flag.example.com" {
			t.Errorf("BaseURL = %q, expected flag value", cfg.BaseURL)
		}
	})

	t.Run("environment fills the API key", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "")
		t.Setenv("GROQ_API_KEY", "test-env-key")

		cmd := NewRunCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("buildRunConfig() error: %v", err)
		}
		if cfg.APIKey != "test-env-key" {
			t.Errorf("APIKey = %q", cfg.APIKey)
		}
	})

	t.Run("conflicting selectors fail validation", func(t *testing.T) {
		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"--workflow", "submit", "--all"}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			t.Fatalf("buildRunConfig() error: %v", err)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for --workflow combined with --all")
		}
	})
}
