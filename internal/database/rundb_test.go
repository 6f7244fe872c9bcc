package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uatlabs/widgetuat/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testRunReport builds a report with the given outcome counts and timestamp.
func testRunReport(baseURL string, passed, failed int, ts time.Time) *model.RunReport {
	report := model.NewRunReport(baseURL, "test-model")
	report.Timestamp = ts
	for i := 0; i < passed; i++ {
		report.AddResult(model.UATResult{Success: true, Task: "task", Viewport: "desktop"})
	}
	for i := 0; i < failed; i++ {
		report.AddResult(model.UATResult{Success: false, Task: "task", Viewport: "desktop", Error: "boom"})
	}
	return report
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, "widgetuat.db")); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to mention missing database, got %q", err.Error())
		}

		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()
	})
}

// TestRunReports tests saving and retrieving run reports.
func TestRunReports(t *testing.T) {
	t.Parallel()

	t.Run("report round-trips through the database", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		report := testRunReport("http://localhost:8080", 2, 1, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
		runID, err := db.SaveRunReport(ctx, report)
		if err != nil {
			t.Fatalf("SaveRunReport() error: %v", err)
		}
		if runID == "" {
			t.Fatal("expected non-empty run ID")
		}

		loaded, err := db.GetRunByID(ctx, runID)
		if err != nil {
			t.Fatalf("GetRunByID() error: %v", err)
		}
		if loaded == nil {
			t.Fatal("expected stored report, got nil")
		}
		if loaded.BaseURL != report.BaseURL {
			t.Errorf("BaseURL = %q, expected %q", loaded.BaseURL, report.BaseURL)
		}
		if loaded.Summary.TotalTests != 3 || loaded.Summary.Passed != 2 {
			t.Errorf("summary = %+v", loaded.Summary)
		}
		if len(loaded.Results) != 3 {
			t.Errorf("got %d results, expected 3", len(loaded.Results))
		}
	})

	t.Run("unknown run ID returns nil without error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		loaded, err := db.GetRunByID(context.Background(), "no-such-run")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded != nil {
			t.Error("expected nil for unknown run ID")
		}
	})

	t.Run("latest runs come back newest first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			report := testRunReport("http://localhost:8080", i, 0, base.Add(time.Duration(i)*time.Hour))
			if _, err := db.SaveRunReport(ctx, report); err != nil {
				t.Fatalf("SaveRunReport() error: %v", err)
			}
		}

		runs, err := db.GetLatestRuns(ctx, "http://localhost:8080", 2)
		if err != nil {
			t.Fatalf("GetLatestRuns() error: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("got %d runs, expected 2", len(runs))
		}
		if runs[0].Summary.Passed != 2 || runs[1].Summary.Passed != 1 {
			t.Errorf("runs out of order: passed counts %d, %d", runs[0].Summary.Passed, runs[1].Summary.Passed)
		}
	})

	t.Run("runs for other sites are not returned", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		ts := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

		if _, err := db.SaveRunReport(ctx, testRunReport("http://site-a:8080", 1, 0, ts)); err != nil {
			t.Fatal(err)
		}
		if _, err := db.SaveRunReport(ctx, testRunReport("http://site-b:8080", 1, 0, ts)); err != nil {
			t.Fatal(err)
		}

		runs, err := db.GetLatestRuns(ctx, "http://site-a:8080", 10)
		if err != nil {
			t.Fatalf("GetLatestRuns() error: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("got %d runs, expected 1", len(runs))
		}
	})
}

// TestGetRunHistory tests metadata-only history listings.
func TestGetRunHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	if _, err := db.SaveRunReport(ctx, testRunReport("http://localhost:8080", 2, 0, base)); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveRunReport(ctx, testRunReport("http://localhost:8080", 1, 1, base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	history, err := db.GetRunHistory(ctx, "http://localhost:8080")
	if err != nil {
		t.Fatalf("GetRunHistory() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d entries, expected 2", len(history))
	}

	// Newest first
	if history[0].Summary.Failed != 1 {
		t.Errorf("first entry Failed = %d, expected 1", history[0].Summary.Failed)
	}
	if history[0].RunID == "" || history[0].RunID == history[1].RunID {
		t.Error("run IDs should be unique and non-empty")
	}
	if history[0].Model != "test-model" {
		t.Errorf("Model = %q", history[0].Model)
	}
	if history[0].Timestamp.IsZero() {
		t.Error("timestamp should parse to a non-zero time")
	}
}

// TestListBaseURLs tests the distinct site listing.
func TestListBaseURLs(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	for _, url := range []string{"http://zeta:8080", "http://alpha:8080", "http://zeta:8080"} {
		if _, err := db.SaveRunReport(ctx, testRunReport(url, 1, 0, ts)); err != nil {
			t.Fatal(err)
		}
	}

	urls, err := db.ListBaseURLs(ctx)
	if err != nil {
		t.Fatalf("ListBaseURLs() error: %v", err)
	}
	expected := []string{"http://alpha:8080", "http://zeta:8080"}
	if len(urls) != len(expected) {
		t.Fatalf("got %d URLs, expected %d", len(urls), len(expected))
	}
	for i, url := range expected {
		if urls[i] != url {
			t.Errorf("urls[%d] = %q, expected %q", i, urls[i], url)
		}
	}
}

// TestAnalyses tests saving and retrieving vision analysis results.
func TestAnalyses(t *testing.T) {
	t.Parallel()

	t.Run("analysis round-trips through the database", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		score := 7.5
		result := &model.AnalysisResult{
			Success:          true,
			Model:            "test-model",
			Timestamp:        time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
			ScreenshotDigest: strings.Repeat("ab", 32),
			Analysis: &model.Analysis{
				Scores: &model.Scores{Overall: &score},
			},
		}

		if err := db.SaveAnalysis(ctx, result, 7.5); err != nil {
			t.Fatalf("SaveAnalysis() error: %v", err)
		}

		loaded, err := db.GetLatestAnalysis(ctx, result.ScreenshotDigest)
		if err != nil {
			t.Fatalf("GetLatestAnalysis() error: %v", err)
		}
		if loaded == nil {
			t.Fatal("expected stored analysis, got nil")
		}
		if loaded.Analysis == nil || loaded.Analysis.Scores.Overall == nil || *loaded.Analysis.Scores.Overall != 7.5 {
			t.Error("analysis scores did not round-trip")
		}
	})

	t.Run("unknown digest returns nil without error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		loaded, err := db.GetLatestAnalysis(context.Background(), strings.Repeat("00", 32))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded != nil {
			t.Error("expected nil for unknown digest")
		}
	})
}
