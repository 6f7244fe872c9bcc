// Package main provides the entry point for the widgetuat CLI.
//
// widgetuat is a UAT harness for web feedback widgets. It delegates browser
// interaction to an LLM-driven agent service and grades screenshots with a
// vision model.
//
// Usage:
//
//	widgetuat run
//	widgetuat run --all
//	widgetuat analyze screenshot.png --page feedback_widget
//
// See --help for all available options.
package main

// main is the entry point for widgetuat.
func main() {
	Execute()
}
