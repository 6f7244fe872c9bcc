// Package main provides the entry point for the widgetuat CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for widgetuat.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widgetuat",
		Short: "LLM-driven UAT harness for web feedback widgets",
		Long: `widgetuat runs user acceptance tests against a web feedback widget.

Browser interaction is delegated to an external LLM browser-agent service
that executes natural-language task descriptions. Screenshots taken during
runs can be graded by a vision model against page objectives.

Test scenarios, page objectives, and viewports are configured in a
.widgetuat.yaml file. Run 'widgetuat init' to generate a starter file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
