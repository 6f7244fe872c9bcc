package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/uatlabs/widgetuat/internal/model"
)

// RunDB provides SQLite-based storage for UAT run reports and vision
// analysis results.
//
// Design decision: We use a single database file for all sites rather than
// one file per base URL. Run comparison queries span a single table and
// backup/restore stays a single-file copy.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "widgetuat.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- Runs store complete UAT run reports as JSON plus summary columns
	-- so history listings never deserialize full reports
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		model TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_tests INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		pass_rate REAL NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_url ON runs(base_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Analyses store vision analysis results keyed by screenshot digest
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		screenshot_digest TEXT NOT NULL,
		model TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		weighted_score REAL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_digest ON analyses(screenshot_digest);
	CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRunReport saves a complete run report and returns its run ID.
func (rdb *RunDB) SaveRunReport(ctx context.Context, report *model.RunReport) (string, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	runID := uuid.NewString()

	query := `
	INSERT INTO runs (run_id, base_url, model, timestamp, total_tests, passed, failed, pass_rate, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = rdb.db.ExecContext(ctx, query,
		runID,
		report.BaseURL,
		report.Model,
		report.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		report.Summary.TotalTests,
		report.Summary.Passed,
		report.Summary.Failed,
		report.Summary.PassRate,
		string(reportJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save run report: %w", err)
	}

	return runID, nil
}

// GetRunByID retrieves a run report by its run ID.
// Returns nil without error when no run exists.
func (rdb *RunDB) GetRunByID(ctx context.Context, runID string) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE run_id = ?
	`

	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, runID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}

	return &report, nil
}

// GetLatestRuns retrieves the most recent run reports for a base URL,
// newest first, up to limit.
func (rdb *RunDB) GetLatestRuns(ctx context.Context, baseURL string, limit int) ([]*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE base_url = ?
	ORDER BY timestamp DESC, rowid DESC
	LIMIT ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, baseURL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var reports []*model.RunReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run report: %w", err)
		}

		var report model.RunReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full reports.
type RunMetadata struct {
	// RunID is the unique identifier of the run in the database.
	RunID string

	// BaseURL is the site the run tested.
	BaseURL string

	// Model is the LLM model used for the run.
	Model string

	// Timestamp is when the run was performed.
	Timestamp time.Time

	// Summary contains the pass/fail counts for the run.
	Summary model.Summary
}

// GetRunHistory retrieves run metadata for a base URL, newest first.
// This is more efficient than GetLatestRuns when only metadata is needed.
func (rdb *RunDB) GetRunHistory(ctx context.Context, baseURL string) ([]RunMetadata, error) {
	query := `
	SELECT run_id, base_url, model, timestamp, total_tests, passed, failed, pass_rate
	FROM runs
	WHERE base_url = ?
	ORDER BY timestamp DESC, rowid DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string

		if err := rows.Scan(
			&meta.RunID,
			&meta.BaseURL,
			&meta.Model,
			&timestamp,
			&meta.Summary.TotalTests,
			&meta.Summary.Passed,
			&meta.Summary.Failed,
			&meta.Summary.PassRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListBaseURLs returns all base URLs with stored runs, sorted.
func (rdb *RunDB) ListBaseURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT base_url FROM runs
	ORDER BY base_url
	`

	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list base URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan base URL: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// SaveAnalysis saves a vision analysis result.
// The weighted score is stored in its own column so score trends can be
// queried without deserializing results.
func (rdb *RunDB) SaveAnalysis(ctx context.Context, result *model.AnalysisResult, weightedScore float64) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}

	query := `
	INSERT INTO analyses (screenshot_digest, model, timestamp, weighted_score, result_json)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err = rdb.db.ExecContext(ctx, query,
		result.ScreenshotDigest,
		result.Model,
		result.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		weightedScore,
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetLatestAnalysis retrieves the most recent analysis for a screenshot
// digest. Returns nil without error when no analysis exists.
func (rdb *RunDB) GetLatestAnalysis(ctx context.Context, digest string) (*model.AnalysisResult, error) {
	query := `
	SELECT result_json FROM analyses
	WHERE screenshot_digest = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := rdb.db.QueryRowContext(ctx, query, digest).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}

	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
