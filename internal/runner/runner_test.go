package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/uatlabs/widgetuat/internal/agent"
	"github.com/uatlabs/widgetuat/internal/config"
)

// fakeAgent records delegated tasks and returns canned outcomes.
type fakeAgent struct {
	mu    sync.Mutex
	tasks []agent.Task

	transcript string
	err        error
}

func (f *fakeAgent) Execute(_ context.Context, task agent.Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return f.transcript, f.err
}

func (f *fakeAgent) taskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.APIKey = "test-key"
	cfg.AgentURL = "http://localhost:7788"
	return cfg
}

// TestRunDefaultsToSubmitWorkflow tests the no-selector default.
func TestRunDefaultsToSubmitWorkflow(t *testing.T) {
	t.Parallel()

	ag := &fakeAgent{transcript: "Submitted feedback successfully"}
	r := NewRunner(testConfig(), ag)

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Submit runs on desktop and mobile.
	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, expected 2", len(report.Results))
	}
	if report.Results[0].Viewport != config.ViewportDesktop || report.Results[1].Viewport != config.ViewportMobile {
		t.Errorf("viewports = %q, %q", report.Results[0].Viewport, report.Results[1].Viewport)
	}
	for _, res := range report.Results {
		if !res.Success {
			t.Errorf("result failed: %q", res.Error)
		}
		if !strings.Contains(res.Task, `Select "Bug" as the feedback type`) {
			t.Error("task is not the submit scenario")
		}
		if !strings.Contains(res.Task, "UAT Test: Automated test submission - ") {
			t.Error("submit task missing timestamp marker")
		}
	}
	if report.Summary.PassRate != 100 {
		t.Errorf("PassRate = %f, expected 100", report.Summary.PassRate)
	}
}

// TestRunCustomTask tests custom tasks on both viewports with the preamble.
func TestRunCustomTask(t *testing.T) {
	t.Parallel()

	ag := &fakeAgent{transcript: "done"}
	cfg := testConfig()
	cfg.Task = "Submit a bug about the login page"
	r := NewRunner(cfg, ag)

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, expected 2", len(report.Results))
	}
	if ag.taskCount() != 2 {
		t.Fatalf("agent received %d tasks, expected 2", ag.taskCount())
	}

	// The agent sees the task wrapped in the widget preamble.
	instructions := ag.tasks[0].Instructions
	if !strings.Contains(instructions, "TASK: Submit a bug about the login page") {
		t.Error("preamble missing the custom task")
	}
	if !strings.Contains(instructions, "Bug, Feature, Improvement, Other") {
		t.Error("preamble missing widget context")
	}
	if !strings.Contains(instructions, "VIEWPORT: desktop (1920x1080)") {
		t.Errorf("preamble missing viewport line: %s", instructions)
	}
}

// TestRunVerifyWorkflow tests the desktop-only verify scenario.
func TestRunVerifyWorkflow(t *testing.T) {
	t.Parallel()

	ag := &fakeAgent{transcript: "found UAT Test entry"}
	cfg := testConfig()
	cfg.Workflow = config.WorkflowVerify
	r := NewRunner(cfg, ag)

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Results) != 1 {
		t.Fatalf("len(Results) = %d, expected 1", len(report.Results))
	}
	if report.Results[0].Viewport != config.ViewportDesktop {
		t.Errorf("viewport = %q, expected desktop", report.Results[0].Viewport)
	}
	if !strings.Contains(report.Results[0].Task, "/feedback") {
		t.Error("verify task should target /feedback")
	}
}

// TestWorkflowStepsFull tests that full expands to submit, delay, verify.
func TestWorkflowStepsFull(t *testing.T) {
	t.Parallel()

	r := NewRunner(testConfig(), &fakeAgent{})
	steps := r.workflowSteps(config.WorkflowFull)

	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, expected 3", len(steps))
	}
	names := []string{steps[0].Name(), steps[1].Name(), steps[2].Name()}
	expected := []string{"workflow-submit", "delay", "workflow-verify"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("step %d = %q, expected %q", i, names[i], expected[i])
		}
	}
}

// TestRunPageTest tests viewport selection per page.
func TestRunPageTest(t *testing.T) {
	t.Parallel()

	mobileCritical := false
	cfg := testConfig()
	cfg.Objectives.Pages["demo"] = config.PageObjective{
		Title:      "Widget Demo",
		Path:       "/demo",
		Purpose:    "Showcase the widget",
		Objectives: []string{"Widget button is visible"},
	}
	cfg.Objectives.Pages["health"] = config.PageObjective{
		Title:          "Health",
		Path:           "/health",
		MobileCritical: &mobileCritical,
	}

	t.Run("mobile-critical page runs desktop and mobile", func(t *testing.T) {
		t.Parallel()

		ag := &fakeAgent{transcript: "ok"}
		c := *cfg
		c.Page = "demo"
		report, err := NewRunner(&c, ag).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if len(report.Results) != 2 {
			t.Fatalf("len(Results) = %d, expected 2", len(report.Results))
		}
		for _, res := range report.Results {
			if res.PageKey != "demo" || res.Page != "Widget Demo" {
				t.Errorf("result = %+v", res)
			}
			if !strings.Contains(res.Task, "URL: http://localhost:8080/demo") {
				t.Error("task missing page URL")
			}
		}
	})

	t.Run("non-mobile-critical page runs desktop only", func(t *testing.T) {
		t.Parallel()

		ag := &fakeAgent{transcript: "ok"}
		c := *cfg
		c.Page = "health"
		report, err := NewRunner(&c, ag).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}

		if len(report.Results) != 1 {
			t.Fatalf("len(Results) = %d, expected 1", len(report.Results))
		}
		if report.Results[0].Viewport != config.ViewportDesktop {
			t.Errorf("viewport = %q", report.Results[0].Viewport)
		}
	})
}

// TestRunAllSkipsAndOrders tests --all page selection.
func TestRunAllSkipsAndOrders(t *testing.T) {
	t.Parallel()

	mobileCritical := false
	cfg := testConfig()
	cfg.All = true
	cfg.Objectives.Pages["zeta"] = config.PageObjective{Title: "Zeta", MobileCritical: &mobileCritical}
	cfg.Objectives.Pages["alpha"] = config.PageObjective{Title: "Alpha", MobileCritical: &mobileCritical}
	cfg.Objectives.Pages["api"] = config.PageObjective{Title: "API", APIOnly: true}
	cfg.Objectives.Pages["list"] = config.PageObjective{Title: "List", RequiresData: true}

	ag := &fakeAgent{transcript: "ok"}
	report, err := NewRunner(cfg, ag).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, expected 2 (api and list skipped)", len(report.Results))
	}
	if report.Results[0].PageKey != "alpha" || report.Results[1].PageKey != "zeta" {
		t.Errorf("order = %q, %q, expected sorted", report.Results[0].PageKey, report.Results[1].PageKey)
	}
}

// TestRunAllBatch tests concurrent page tests keep report order.
func TestRunAllBatch(t *testing.T) {
	t.Parallel()

	mobileCritical := false
	cfg := testConfig()
	cfg.All = true
	cfg.BatchSize = 3
	for _, key := range []string{"e", "d", "c", "b", "a"} {
		cfg.Objectives.Pages[key] = config.PageObjective{Title: key, MobileCritical: &mobileCritical}
	}

	ag := &fakeAgent{transcript: "ok"}
	report, err := NewRunner(cfg, ag).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Results) != 5 {
		t.Fatalf("len(Results) = %d, expected 5", len(report.Results))
	}
	for i, key := range []string{"a", "b", "c", "d", "e"} {
		if report.Results[i].PageKey != key {
			t.Errorf("Results[%d].PageKey = %q, expected %q", i, report.Results[i].PageKey, key)
		}
	}
}

// TestRunRecordsAgentFailures tests that task failures never abort the run.
func TestRunRecordsAgentFailures(t *testing.T) {
	t.Parallel()

	ag := &fakeAgent{err: errors.New("browser agent unreachable")}
	report, err := NewRunner(testConfig(), ag).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, expected 2", len(report.Results))
	}
	for _, res := range report.Results {
		if res.Success {
			t.Error("result should be a failure")
		}
		if !strings.Contains(res.Error, "unreachable") {
			t.Errorf("Error = %q", res.Error)
		}
	}
	if report.Summary.Failed != 2 {
		t.Errorf("Failed = %d, expected 2", report.Summary.Failed)
	}
}

// TestRunWithoutAPIKey tests that missing credentials fail before any call.
func TestRunWithoutAPIKey(t *testing.T) {
	t.Parallel()

	ag := &fakeAgent{transcript: "should never run"}
	cfg := testConfig()
	cfg.APIKey = ""

	report, err := NewRunner(cfg, ag).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if ag.taskCount() != 0 {
		t.Errorf("agent received %d tasks, expected none", ag.taskCount())
	}
	for _, res := range report.Results {
		if res.Success || !strings.Contains(res.Error, "LLM_API_KEY") {
			t.Errorf("result = %+v", res)
		}
	}
}

// TestRunCancelledContext tests that cancellation aborts before new steps.
func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ag := &fakeAgent{transcript: "ok"}
	report, err := NewRunner(testConfig(), ag).Run(ctx)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, expected context.Canceled", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("len(Results) = %d, expected 0", len(report.Results))
	}
}

// TestCustomWorkflowOverride tests objectives-file workflows replacing the
// built-in text.
func TestCustomWorkflowOverride(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Workflow = config.WorkflowSubmit
	cfg.Objectives.Workflows[config.WorkflowSubmit] = []string{
		"Open the demo page",
		"Submit a Feature request",
	}

	ag := &fakeAgent{transcript: "ok"}
	report, err := NewRunner(cfg, ag).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, expected 2", len(report.Results))
	}
	if !strings.Contains(report.Results[0].Task, "1. Open the demo page") ||
		!strings.Contains(report.Results[0].Task, "2. Submit a Feature request") {
		t.Errorf("task = %q", report.Results[0].Task)
	}
}
