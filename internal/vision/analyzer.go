package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"

	"github.com/uatlabs/widgetuat/internal/config"
	"github.com/uatlabs/widgetuat/internal/model"
)

// Response truncation limits. Error bodies and unparseable model output are
// stored in results for debugging but must not bloat reports.
const (
	maxErrorDetails = 500
	maxRawResponse  = 1000
)

// maxTokens bounds the model's response. 4096 comfortably fits the largest
// verdict the output schema can produce.
const maxTokens = 4096

// Analyzer grades screenshots through an OpenAI-compatible vision API.
//
// Design decision: We hold the http.Client in the struct rather than
// creating one per call because:
//  1. Endpoint and timeout configuration should be consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with httptest servers
type Analyzer struct {
	// apiKey authenticates requests. Empty means analysis is disabled;
	// every call short-circuits to a structured failure.
	apiKey string

	// apiURL is the full chat-completions endpoint URL.
	apiURL string

	// visionModel is the model identifier sent with each request.
	visionModel string

	// client is the HTTP client used for API calls.
	client *http.Client

	// timeout is the per-request deadline.
	timeout time.Duration

	logger *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAPIKey sets the API key. An empty key disables analysis.
func WithAPIKey(key string) AnalyzerOption {
	return func(a *Analyzer) {
		a.apiKey = key
	}
}

// WithAPIURL sets the chat-completions endpoint URL.
func WithAPIURL(url string) AnalyzerOption {
	return func(a *Analyzer) {
		a.apiURL = url
	}
}

// WithModel sets the vision model identifier.
func WithModel(m string) AnalyzerOption {
	return func(a *Analyzer) {
		a.visionModel = m
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. Used in tests.
func WithHTTPClient(c *http.Client) AnalyzerOption {
	return func(a *Analyzer) {
		a.client = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// NewAnalyzer creates an analyzer with sensible defaults. Without
// WithAPIKey, every analysis returns a "No API key configured" failure
// without touching the network.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		apiURL:      config.DefaultVisionAPIURL,
		visionModel: config.DefaultModel,
		timeout:     config.DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: a.timeout}
	}
	return a
}

// chatRequest is the OpenAI-compatible request payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	Text     string    `json:"text,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

// chatResponse is the subset of the completion response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeScreenshot grades one screenshot against a page's objectives.
// Failures are returned as structured results, never as errors: a run
// records an unsuccessful analysis and moves on.
func (a *Analyzer) AnalyzeScreenshot(ctx context.Context, screenshotPath string, page config.PageObjective, viewportName string, viewport config.Viewport, content string) model.AnalysisResult {
	if a.apiKey == "" {
		return model.AnalysisResult{Success: false, Error: "No API key configured", Timestamp: time.Now()}
	}

	imageBytes, err := PrepareImage(screenshotPath)
	if err != nil {
		return model.AnalysisResult{Success: false, Error: err.Error(), Timestamp: time.Now()}
	}

	digest := sha3.Sum256(imageBytes)
	prompt := BuildPrompt(page, viewportName, viewport, content)

	result := a.callAPI(ctx, imageBytes, prompt)
	result.ScreenshotDigest = hex.EncodeToString(digest[:])
	return result
}

// callAPI performs one chat-completion request. No retries: a flaky verdict
// is worth less than a fast, honest failure.
func (a *Analyzer) callAPI(ctx context.Context, imageBytes []byte, prompt string) model.AnalysisResult {
	payload := chatRequest{
		Model: a.visionModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{
						Type: "image_url",
						ImageURL: &imageURL{
							URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes),
							Detail: "high",
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
		Temperature: 0,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.AnalysisResult{Success: false, Error: err.Error(), Timestamp: time.Now()}
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return model.AnalysisResult{Success: false, Error: err.Error(), Timestamp: time.Now()}
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.AnalysisResult{
				Success:   false,
				Error:     fmt.Sprintf("API request timed out (%s)", a.timeout),
				Timestamp: time.Now(),
			}
		}
		return model.AnalysisResult{Success: false, Error: err.Error(), Timestamp: time.Now()}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.AnalysisResult{Success: false, Error: err.Error(), Timestamp: time.Now()}
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("vision API error", "status", resp.StatusCode)
		return model.AnalysisResult{
			Success:   false,
			Error:     fmt.Sprintf("API error: %d", resp.StatusCode),
			Details:   truncate(string(respBody), maxErrorDetails),
			Timestamp: time.Now(),
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil || len(completion.Choices) == 0 {
		return model.AnalysisResult{
			Success:     false,
			Error:       "Invalid JSON response",
			RawResponse: truncate(string(respBody), maxRawResponse),
			Timestamp:   time.Now(),
		}
	}

	text := stripFence(completion.Choices[0].Message.Content)

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		a.logger.Warn("vision verdict is not valid JSON", "error", err)
		return model.AnalysisResult{
			Success:     false,
			Error:       "Invalid JSON response",
			RawResponse: truncate(completion.Choices[0].Message.Content, maxRawResponse),
			Timestamp:   time.Now(),
		}
	}
	analysis.Scores.Clamp()

	return model.AnalysisResult{
		Success:   true,
		Analysis:  &analysis,
		Model:     a.visionModel,
		Timestamp: time.Now(),
	}
}

// stripFence removes a surrounding markdown code fence, with or without a
// "json" language tag. Models add fences despite being told not to.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) < 2 {
		return s
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
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
