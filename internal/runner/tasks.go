package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/uatlabs/widgetuat/internal/config"
)

// contextTask wraps a task with the widget-testing preamble and viewport
// line. The preamble anchors the agent on the demo page and the widget's
// visual identity so generic tasks still find the right UI.
func contextTask(baseURL, task, viewportName string, vp config.Viewport) string {
	return fmt.Sprintf(`
You are testing the Feedback Widget at %s

TASK: %s

IMPORTANT INSTRUCTIONS:
1. Navigate to %s/demo first
2. Look for a yellow/orange floating button with "!" icon in the bottom-right corner
3. This is the feedback widget button - click it to open the feedback modal
4. The modal should have options: Bug, Feature, Improvement, Other
5. After completing the task, take a screenshot
6. Report what you observed and whether the task was successful

VIEWPORT: %s (%dx%d)
`, baseURL, task, baseURL, viewportName, vp.Width, vp.Height)
}

// submitTask is the built-in feedback submission scenario. The timestamp
// marker makes each submission unique and lets the verify workflow find it.
func submitTask(marker time.Time) string {
	return fmt.Sprintf(`
1. Go to the demo page
2. Find and click the yellow feedback button (floating action button with "!" icon)
3. Wait for the feedback modal to open
4. Select "Bug" as the feedback type
5. Enter this message: "UAT Test: Automated test submission - %s"
6. Click the Submit button
7. Verify the submission was successful (look for success message or modal closing)
8. Take a screenshot of the final state
9. Report whether the feedback was submitted successfully
`, marker.Format(time.RFC3339))
}

// verifyTask is the built-in submission verification scenario. It checks
// the admin list for the marker left by submitTask.
func verifyTask() string {
	return `
1. Go to the admin feedback list page at /feedback
2. Look for the most recent feedback entry
3. Check if there's an entry containing "UAT Test"
4. Take a screenshot of the feedback list
5. Report what feedback entries you can see
`
}

// customWorkflowTask joins user-defined workflow steps from the objectives
// file into numbered instructions.
func customWorkflowTask(steps []string) string {
	var b strings.Builder
	b.WriteByte('\n')
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}

// pageTask builds the verification task for one configured page.
func pageTask(baseURL string, page config.PageObjective) string {
	var objectives strings.Builder
	for _, obj := range page.Objectives {
		fmt.Fprintf(&objectives, "- %s\n", obj)
	}

	return fmt.Sprintf(`
TEST PAGE: %s
URL: %s%s
PURPOSE: %s

Please verify these objectives:
%s
Instructions:
1. Navigate to the page
2. Wait for it to fully load
3. Check each objective listed above
4. Take a screenshot
5. Report which objectives PASS, PARTIAL, or FAIL with explanations
`, page.Title, baseURL, page.Path, page.Purpose, objectives.String())
}
