package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These match the behavior of the harness before it was configurable and
// work out of the box against a locally served widget demo.
const (
	// DefaultBaseURL is where the widget demo server listens during local
	// development. Override with --base-url for staging or CI targets.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultVisionAPIURL is the OpenAI-compatible chat completions endpoint
	// used for screenshot analysis. Any provider exposing the same shape
	// works; override with LLM_BASE_URL.
	DefaultVisionAPIURL = "https://api.groq.com/openai/v1/chat/completions"

	// DefaultModel is the vision-capable model used both for screenshot
	// grading and as the browser agent's reasoning model unless overridden.
	DefaultModel = "meta-llama/llama-4-maverick-17b-128e-instruct"

	// DefaultTimeout is set to 120 seconds because a single vision request
	// carries a multi-megabyte image payload and a single browser task can
	// involve dozens of page interactions. Shorter timeouts produce false
	// failures on slow CI runners.
	DefaultTimeout = 120 * time.Second

	// DefaultBatchSize of 1 runs page tests strictly sequentially. Browser
	// tasks mutate shared server state (submitted feedback), so concurrency
	// is opt-in via --batch.
	DefaultBatchSize = 1

	// DefaultReportsDir is where timestamped report files are written,
	// relative to the working directory.
	DefaultReportsDir = "reports"

	// DefaultScreenshotsDir is where the browser agent is asked to place
	// screenshots, relative to the working directory.
	DefaultScreenshotsDir = "screenshots"

	// AppName is the application name used for XDG directory paths.
	AppName = "widgetuat"
)

// Environment variable names read by ApplyEnv.
const (
	EnvAPIKey    = "LLM_API_KEY"
	EnvAPIKeyAlt = "GROQ_API_KEY"
	EnvVisionURL = "LLM_BASE_URL"
	EnvModel     = "LLM_MODEL"
	EnvAgentURL  = "WIDGETUAT_AGENT_URL"
)

// Workflow names accepted by the --workflow flag.
const (
	WorkflowSubmit = "submit"
	WorkflowVerify = "verify"
	WorkflowFull   = "full"
)

// Config holds all configuration options for widgetuat.
// This struct is designed to be populated from CLI flags, environment
// variables, and the objectives file, then passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., RunConfig, VisionConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// BaseURL is the root URL of the site under test. Page paths from the
	// objectives file are appended to it.
	BaseURL string

	// Model is the LLM identifier used by the browser agent and, unless
	// the vision analyzer is given its own, for screenshot grading too.
	Model string

	// APIKey authenticates vision API requests. When empty, vision
	// analysis is disabled and the analyzer reports a structured failure
	// without making a network call.
	APIKey string

	// VisionAPIURL is the full chat-completions endpoint URL.
	VisionAPIURL string

	// AgentURL is the base URL of the external browser-agent service that
	// executes natural-language tasks. When empty, run commands fail each
	// task with a hint on how to start the service.
	AgentURL string

	// Timeout applies to each vision API request and each delegated
	// browser task individually, not to the whole run.
	Timeout time.Duration

	// Headed asks the browser agent to run with a visible browser window
	// instead of headless. Useful when debugging task instructions.
	Headed bool

	// Task is a custom natural-language task to run instead of a workflow.
	Task string

	// Workflow selects a built-in scenario: submit, verify, or full.
	Workflow string

	// Page is the objectives-file key of a single page to test.
	Page string

	// All runs every configured page test. Pages marked api_only or
	// requires_data are skipped.
	All bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of page tests executed concurrently when
	// --all is combined with --batch. 1 means sequential.
	BatchSize int

	// ConfigFilePath is the path to the objectives file. If empty, the
	// tool searches for .widgetuat.yaml in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// Objectives holds page objectives and viewports loaded from the
	// objectives file. Populated by LoadConfigFile; immutable after load.
	Objectives *File

	// JSONReport selects JSON output for analyze/compare instead of the
	// human-readable format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output for analyze/compare.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for analyze/compare reports.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ReportsDir is the directory for timestamped run report files.
	ReportsDir string

	// ScreenshotsDir is where the browser agent is asked to save
	// screenshots.
	ScreenshotsDir string

	// DBDir is the directory path for storing the SQLite run-history
	// database. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist run reports for later
	// comparison. Set to false to keep runs ephemeral.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work against a local
// widget demo. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, base URL).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Model:          DefaultModel,
		VisionAPIURL:   DefaultVisionAPIURL,
		Timeout:        DefaultTimeout,
		BatchSize:      DefaultBatchSize,
		ReportsDir:     DefaultReportsDir,
		ScreenshotsDir: DefaultScreenshotsDir,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
		Objectives:     NewFile(),
	}
}

// ApplyEnv fills credential and endpoint fields from the environment.
// Values already set by flags win over the environment; the environment
// wins over defaults. LLM_API_KEY takes precedence over GROQ_API_KEY.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		if v := os.Getenv(EnvAPIKey); v != "" {
			c.APIKey = v
		} else if v := os.Getenv(EnvAPIKeyAlt); v != "" {
			c.APIKey = v
		}
	}
	if v := os.Getenv(EnvVisionURL); v != "" && c.VisionAPIURL == DefaultVisionAPIURL {
		c.VisionAPIURL = v
	}
	if v := os.Getenv(EnvModel); v != "" && c.Model == DefaultModel {
		c.Model = v
	}
	if c.AgentURL == "" {
		c.AgentURL = os.Getenv(EnvAgentURL)
	}
}

// XDGDataDir returns the XDG data directory for widgetuat.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/widgetuat
// On macOS: ~/Library/Application Support/widgetuat
// On Windows: %LOCALAPPDATA%\widgetuat
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for widgetuat.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any tasks run.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	// Timeout must be positive; zero timeout would fail every request
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// BatchSize must be positive; zero would mean no tasks execute
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// Task, workflow, page, and --all are alternative ways to select what
	// runs; at most one may be given
	selectors := 0
	if c.Task != "" {
		selectors++
	}
	if c.Workflow != "" {
		selectors++
	}
	if c.Page != "" {
		selectors++
	}
	if c.All {
		selectors++
	}
	if selectors > 1 {
		return ErrConflictingSelectors
	}

	switch c.Workflow {
	case "", WorkflowSubmit, WorkflowVerify, WorkflowFull:
	default:
		return ErrUnknownWorkflow
	}

	if c.Page != "" {
		if _, ok := c.Objectives.Page(c.Page); !ok {
			return ErrUnknownPage
		}
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
