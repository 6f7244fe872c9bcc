// Package report renders run reports and vision analyses as JSON, Markdown,
// and human-readable terminal text, and writes timestamped report files.
package report
