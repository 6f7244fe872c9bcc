package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoAgentURL is returned when no browser-agent service is configured.
var ErrNoAgentURL = errors.New("no browser-agent service configured: start one and set --agent-url or WIDGETUAT_AGENT_URL")

// runHint is appended to connection failures so the error tells the user
// what to do, not just what broke.
const runHint = "is the browser-agent service running at the configured agent URL?"

// HTTPAgent delegates tasks to a browser-agent service over HTTP.
// The service accepts a task and returns a transcript; everything between
// those two points (browser lifecycle, LLM calls, retries within the task)
// is the service's business.
type HTTPAgent struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// HTTPAgentOption configures an HTTPAgent.
type HTTPAgentOption func(*HTTPAgent)

// WithHTTPClient replaces the HTTP client. Used in tests.
func WithHTTPClient(c *http.Client) HTTPAgentOption {
	return func(a *HTTPAgent) {
		a.client = c
	}
}

// WithTimeout sets the per-task deadline. Browser tasks involve many page
// interactions, so this should be generous.
func WithTimeout(d time.Duration) HTTPAgentOption {
	return func(a *HTTPAgent) {
		a.timeout = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) HTTPAgentOption {
	return func(a *HTTPAgent) {
		a.logger = l
	}
}

// NewHTTPAgent creates an agent client for the service at baseURL.
func NewHTTPAgent(baseURL string, opts ...HTTPAgentOption) *HTTPAgent {
	a := &HTTPAgent{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 5 * time.Minute,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: a.timeout}
	}
	return a
}

// taskResponse is the service's reply.
type taskResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Error   string `json:"error,omitempty"`
}

// Execute posts the task to the service's /tasks endpoint and returns the
// transcript. Transport failures carry a hint about starting the service.
func (a *HTTPAgent) Execute(ctx context.Context, task Task) (string, error) {
	if a.baseURL == "" {
		return "", ErrNoAgentURL
	}

	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("cannot encode task: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("cannot build task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	a.logger.Debug("delegating task to browser agent",
		"viewport", fmt.Sprintf("%dx%d", task.Viewport.Width, task.Viewport.Height),
		"headed", task.Headed)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("browser agent unreachable (%s): %w", runHint, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("cannot read agent response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("browser agent returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var tr taskResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("cannot parse agent response: %w", err)
	}
	if !tr.Success {
		if tr.Error != "" {
			return tr.Result, fmt.Errorf("browser agent task failed: %s", tr.Error)
		}
		return tr.Result, errors.New("browser agent task failed")
	}

	return tr.Result, nil
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
