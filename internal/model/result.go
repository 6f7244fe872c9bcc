package model

import (
	"math"
	"time"
)

// UATResult is the outcome of a single task delegated to the browser agent.
// Results are append-only: once added to a report they are never mutated.
type UATResult struct {
	// Success indicates whether the agent completed the task without a
	// transport or execution error. It does not assert that the page
	// behaved correctly; that judgment lives in the transcript.
	Success bool `json:"success"`
	// Task is the full natural-language instruction sent to the agent.
	Task string `json:"task"`
	// Viewport names the viewport the task ran under (e.g. "desktop").
	Viewport string `json:"viewport"`
	// History is the agent's freeform transcript of what it did and saw.
	History string `json:"history,omitempty"`
	// Timestamp records when the task finished.
	Timestamp time.Time `json:"timestamp"`
	// PageKey is the configured page key, when the task targeted one.
	PageKey string `json:"page_key,omitempty"`
	// Page is the page title, when the task targeted a configured page.
	Page string `json:"page,omitempty"`
	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
}

// Summary aggregates pass/fail counts for one run.
type Summary struct {
	TotalTests int     `json:"total_tests"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	PassRate   float64 `json:"pass_rate"`
}

// RunReport is the aggregate result of one harness invocation.
type RunReport struct {
	// Timestamp records when the run started.
	Timestamp time.Time `json:"timestamp"`
	// BaseURL is the site under test.
	BaseURL string `json:"base_url"`
	// Model is the LLM the browser agent reasoned with.
	Model string `json:"model,omitempty"`
	// Results holds one entry per attempted task/viewport pair, in the
	// order they were attempted.
	Results []UATResult `json:"results"`
	// Summary is derived from Results by Summarize.
	Summary Summary `json:"summary"`
}

// NewRunReport creates an empty report for the given target.
func NewRunReport(baseURL, model string) *RunReport {
	return &RunReport{
		Timestamp: time.Now(),
		BaseURL:   baseURL,
		Model:     model,
		Results:   []UATResult{},
	}
}

// AddResult appends a result and refreshes the summary.
func (r *RunReport) AddResult(res UATResult) {
	r.Results = append(r.Results, res)
	r.Summary = r.Summarize()
}

// Summarize derives pass/fail counts from the accumulated results. An empty
// run yields zero totals and a zero pass rate, not a division error.
func (r *RunReport) Summarize() Summary {
	s := Summary{TotalTests: len(r.Results)}
	for _, res := range r.Results {
		if res.Success {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	if s.TotalTests > 0 {
		// One decimal is enough for a percentage; more is noise in reports.
		s.PassRate = math.Round(float64(s.Passed)/float64(s.TotalTests)*1000) / 10
	}
	return s
}
