// Package database provides SQLite-based storage for widgetuat.
//
// This package implements the RunDB, which stores:
//   - Complete UAT run reports for historical comparison
//   - Vision analysis results keyed by screenshot digest
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Run history enables the compare command to diff consecutive runs against
// the same site and surface newly failing or newly fixed tests.
package database
