// Package agent delegates natural-language browser tasks to an external
// autonomous browser-agent service. The harness sends instructions and
// receives a freeform transcript; it never drives the browser itself.
package agent

import (
	"context"

	"github.com/uatlabs/widgetuat/internal/config"
)

// Task is one natural-language instruction for the browser agent.
type Task struct {
	// Instructions is the full task text, including viewport context.
	Instructions string `json:"task"`

	// Viewport is the browser window size to run under.
	Viewport config.Viewport `json:"viewport"`

	// Headed requests a visible browser window instead of headless.
	Headed bool `json:"headed"`

	// Model is the LLM the agent should reason with.
	Model string `json:"model,omitempty"`

	// ScreenshotPath is where the agent should save its final screenshot,
	// when it supports capture. Absence of the file afterwards is normal.
	ScreenshotPath string `json:"screenshot_path,omitempty"`
}

// Agent executes browser tasks. Implementations return the agent's freeform
// transcript of what it did and observed; they do not interpret it.
//
// Design decision: The harness delegates all browser judgment to the agent
// and trusts its transcript. Verifying page behavior locally would duplicate
// the agent's job with a worse tool.
type Agent interface {
	// Execute runs one task to completion and returns the transcript.
	// The context bounds the whole task, including browser time.
	Execute(ctx context.Context, task Task) (string, error)
}
