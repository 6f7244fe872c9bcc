package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/uatlabs/widgetuat/internal/config"
	"github.com/uatlabs/widgetuat/internal/model"
)

// customTaskStep runs a user-supplied natural-language task on both
// viewports. Custom tasks get the full widget preamble so terse
// instructions like "submit a bug" still land on the right UI.
type customTaskStep struct {
	runner *Runner
	task   string
}

func (s *customTaskStep) Name() string { return "custom-task" }

func (s *customTaskStep) Do(ctx context.Context, report *model.RunReport) error {
	for _, viewport := range []string{config.ViewportDesktop, config.ViewportMobile} {
		report.AddResult(s.runner.runTask(ctx, s.task, "", "", viewport))
	}
	return nil
}

// workflowStep runs one built-in workflow. Objectives-file workflows with
// the same name override the built-in step text.
type workflowStep struct {
	runner *Runner
	name   string
}

func (s *workflowStep) Name() string { return "workflow-" + s.name }

func (s *workflowStep) Do(ctx context.Context, report *model.RunReport) error {
	var task string
	viewports := []string{config.ViewportDesktop}

	if steps, ok := s.runner.cfg.Objectives.Workflows[s.name]; ok && len(steps) > 0 {
		task = customWorkflowTask(steps)
		viewports = []string{config.ViewportDesktop, config.ViewportMobile}
	} else {
		switch s.name {
		case config.WorkflowSubmit:
			task = submitTask(time.Now())
			// Submission must work on both viewports; that is the
			// widget's whole job.
			viewports = []string{config.ViewportDesktop, config.ViewportMobile}
		case config.WorkflowVerify:
			task = verifyTask()
		default:
			return fmt.Errorf("unknown workflow: %s", s.name)
		}
	}

	for _, viewport := range viewports {
		report.AddResult(s.runner.runTask(ctx, task, "", "", viewport))
	}
	return nil
}

// delayStep pauses between dependent steps, honoring cancellation.
type delayStep struct {
	d time.Duration
}

func (s *delayStep) Name() string { return "delay" }

func (s *delayStep) Do(ctx context.Context, _ *model.RunReport) error {
	select {
	case <-time.After(s.d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pageTestStep runs one configured page test.
type pageTestStep struct {
	runner  *Runner
	pageKey string
}

func (s *pageTestStep) Name() string { return "page-" + s.pageKey }

func (s *pageTestStep) Do(ctx context.Context, report *model.RunReport) error {
	for _, result := range s.runner.runPageTest(ctx, s.pageKey) {
		report.AddResult(result)
	}
	return nil
}

// allPagesStep runs every runnable configured page, sequentially or
// concurrently depending on the batch size.
type allPagesStep struct {
	runner *Runner
}

func (s *allPagesStep) Name() string { return "all-pages" }

func (s *allPagesStep) Do(ctx context.Context, report *model.RunReport) error {
	keys := s.runner.runnablePages()

	if s.runner.cfg.BatchSize > 1 {
		return s.runner.runPagesBatch(ctx, keys, report)
	}

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for _, result := range s.runner.runPageTest(ctx, key) {
			report.AddResult(result)
		}
	}
	return nil
}
