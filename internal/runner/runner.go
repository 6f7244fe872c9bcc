package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/uatlabs/widgetuat/internal/agent"
	"github.com/uatlabs/widgetuat/internal/config"
	"github.com/uatlabs/widgetuat/internal/model"
)

// fullWorkflowDelay separates submit from verify in the full workflow,
// giving the server time to persist the submission.
const fullWorkflowDelay = 2 * time.Second

// Runner drives one UAT run: it builds tasks from configuration, delegates
// them to the browser agent, and accumulates results.
type Runner struct {
	cfg    *config.Config
	agent  agent.Agent
	logger *slog.Logger

	// timestamp names this run's artifact files; fixed at construction so
	// all screenshots and reports of one run share it.
	timestamp string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner for the given configuration and agent.
func NewRunner(cfg *config.Config, ag agent.Agent, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:       cfg,
		agent:     ag,
		logger:    slog.Default(),
		timestamp: time.Now().Format("20060102_150405"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timestamp returns the run's artifact timestamp.
func (r *Runner) Timestamp() string {
	return r.timestamp
}

// Run executes whatever the configuration selects: a custom task, a
// workflow, one page, or all pages. With no selector, the submit workflow
// runs (the most common acceptance check). Results collected before a
// cancellation are kept in the returned report.
func (r *Runner) Run(ctx context.Context) (*model.RunReport, error) {
	report := model.NewRunReport(r.cfg.BaseURL, r.cfg.Model)

	p := NewPipeline(WithPipelineLogger(r.logger))
	switch {
	case r.cfg.Task != "":
		p.AddStep(&customTaskStep{runner: r, task: r.cfg.Task})
	case r.cfg.Workflow != "":
		p.AddSteps(r.workflowSteps(r.cfg.Workflow)...)
	case r.cfg.Page != "":
		p.AddStep(&pageTestStep{runner: r, pageKey: r.cfg.Page})
	case r.cfg.All:
		p.AddStep(&allPagesStep{runner: r})
	default:
		r.logger.Info("no selector given, running submit workflow")
		p.AddSteps(r.workflowSteps(config.WorkflowSubmit)...)
	}

	err := p.Execute(ctx, report)
	report.Summary = report.Summarize()
	return report, err
}

// workflowSteps expands a workflow name into pipeline steps. The full
// workflow is submit, a persistence delay, then verify.
func (r *Runner) workflowSteps(name string) []Step {
	if name == config.WorkflowFull {
		return []Step{
			&workflowStep{runner: r, name: config.WorkflowSubmit},
			&delayStep{d: fullWorkflowDelay},
			&workflowStep{runner: r, name: config.WorkflowVerify},
		}
	}
	return []Step{&workflowStep{runner: r, name: name}}
}

// runTask delegates one task to the agent and converts the outcome into a
// result. Failures of any kind become unsuccessful results, never errors:
// the run records them and continues.
func (r *Runner) runTask(ctx context.Context, taskText, pageKey, pageTitle, viewportName string) model.UATResult {
	result := model.UATResult{
		Task:      taskText,
		Viewport:  viewportName,
		PageKey:   pageKey,
		Page:      pageTitle,
		Timestamp: time.Now(),
	}

	// The agent needs LLM credentials to reason; fail fast without them.
	if r.cfg.APIKey == "" {
		result.Error = "No GROQ_API_KEY or LLM_API_KEY found in environment"
		return result
	}

	vp, ok := r.cfg.Objectives.Viewport(viewportName)
	if !ok {
		result.Error = fmt.Sprintf("unknown viewport: %s", viewportName)
		return result
	}

	r.logger.Info("running task",
		"viewport", viewportName,
		"page", pageKey,
	)

	transcript, err := r.agent.Execute(ctx, agent.Task{
		Instructions:   contextTask(r.cfg.BaseURL, taskText, viewportName, vp),
		Viewport:       vp,
		Headed:         r.cfg.Headed,
		Model:          r.cfg.Model,
		ScreenshotPath: r.screenshotPath(viewportName),
	})
	result.History = transcript
	result.Timestamp = time.Now()

	if err != nil {
		r.logger.Warn("task failed", "viewport", viewportName, "error", err)
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}

// screenshotPath is where the agent is asked to save the final screenshot.
// Capture support varies by agent; a missing file afterwards is normal.
func (r *Runner) screenshotPath(viewportName string) string {
	return filepath.Join(r.cfg.ScreenshotsDir, fmt.Sprintf("agent_%s_%s.png", viewportName, r.timestamp))
}

// pageViewports returns the viewports a page test runs under. Every page
// runs on desktop; mobile-critical pages run on mobile too.
func pageViewports(page config.PageObjective) []string {
	viewports := []string{config.ViewportDesktop}
	if page.IsMobileCritical() {
		viewports = append(viewports, config.ViewportMobile)
	}
	return viewports
}

// runPageTest runs one configured page on all of its viewports.
func (r *Runner) runPageTest(ctx context.Context, pageKey string) []model.UATResult {
	page, ok := r.cfg.Objectives.Page(pageKey)
	if !ok {
		return []model.UATResult{{
			Task:      pageKey,
			PageKey:   pageKey,
			Error:     fmt.Sprintf("unknown page: %s", pageKey),
			Timestamp: time.Now(),
		}}
	}

	task := pageTask(r.cfg.BaseURL, page)
	var results []model.UATResult
	for _, viewportName := range pageViewports(page) {
		results = append(results, r.runTask(ctx, task, pageKey, page.Title, viewportName))
	}
	return results
}

// runnablePages returns the page keys --all covers, in sorted order.
// api_only pages have no UI to look at; requires_data pages would fail for
// want of fixtures rather than defects.
func (r *Runner) runnablePages() []string {
	var keys []string
	for _, key := range r.cfg.Objectives.PageKeys() {
		page, _ := r.cfg.Objectives.Page(key)
		if page.APIOnly {
			continue
		}
		if page.RequiresData {
			r.logger.Info("skipping page, requires existing data", "page", key)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
