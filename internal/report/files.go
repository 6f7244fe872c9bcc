package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/uatlabs/widgetuat/internal/model"
)

// File permissions for report artifacts. Reports can contain transcripts of
// internal pages, so they are not world-readable.
const (
	reportFileMode = 0o600
	reportDirMode  = 0o750
)

// WriteRunFiles writes the timestamped JSON and Markdown report files for a
// run and returns their paths. The directory is created if missing.
func WriteRunFiles(report *model.RunReport, dir, timestamp, version string) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(dir, reportDirMode); err != nil {
		return "", "", fmt.Errorf("cannot create reports directory: %w", err)
	}

	jsonPath = filepath.Join(dir, fmt.Sprintf("uat_report_%s.json", timestamp))
	if err := writeReportFile(jsonPath, func(f *os.File) error {
		_, werr := NewFullJSONWriter(f, version, WithPrettyPrint()).Write(report)
		return werr
	}); err != nil {
		return "", "", err
	}

	mdPath = filepath.Join(dir, fmt.Sprintf("uat_report_%s.md", timestamp))
	if err := writeReportFile(mdPath, func(f *os.File) error {
		_, werr := NewMarkdownWriter(f).Write(report)
		return werr
	}); err != nil {
		return "", "", err
	}

	return jsonPath, mdPath, nil
}

// writeReportFile creates a report file and runs the writer against it.
func writeReportFile(path string, write func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, reportFileMode) //nolint:gosec
	if err != nil {
		return fmt.Errorf("cannot create report file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write report file %s: %w", path, err)
	}
	return f.Close()
}
