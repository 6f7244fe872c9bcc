// Package runner orchestrates UAT runs. It turns page objectives and
// workflow selections into natural-language browser tasks, delegates them to
// the agent, and collects results into a run report.
package runner
