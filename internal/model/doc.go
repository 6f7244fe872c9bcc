// Package model defines the core data structures used throughout widgetuat.
//
// This package contains the following main types:
//   - UATResult: The outcome of a single delegated browser task
//   - RunReport: The aggregate result of one harness invocation
//   - AnalysisResult: The outcome of one vision analysis of a screenshot
//   - Analysis: The structured UI/UX verdict returned by the vision model
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (runner, vision, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
