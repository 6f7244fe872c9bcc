package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoBaseURL is returned when the base URL is empty.
	// Every task and page test needs a site to run against.
	ErrNoBaseURL = errors.New("no base URL specified: use --base-url or set base_url in .widgetuat.yaml")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	// A batch size of zero would mean no page tests execute at all.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingSelectors is returned when more than one of --task,
	// --workflow, --page, and --all is given. Each selects a different
	// thing to run; combining them would be ambiguous.
	ErrConflictingSelectors = errors.New("conflicting selectors: use at most one of --task, --workflow, --page, --all")

	// ErrUnknownWorkflow is returned when --workflow names something other
	// than submit, verify, or full.
	ErrUnknownWorkflow = errors.New("unknown workflow: must be submit, verify, or full")

	// ErrUnknownPage is returned when --page names a key that does not
	// exist in the objectives file.
	ErrUnknownPage = errors.New("unknown page: key not found in objectives file")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
