package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/uatlabs/widgetuat/internal/config"
)

//go:embed templates/widgetuat.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new widgetuat objectives file",
		Long: `Initialize creates a new .widgetuat.yaml objectives file in the current directory.

The generated file includes:
- The default base URL and viewport sizes
- Example page objectives for a feedback widget
- Commented examples for custom workflows
- Documentation for all available options

Examples:
  # Create .widgetuat.yaml in current directory
  widgetuat init

  # Create the objectives file at a specific path
  widgetuat init -o uat/staging.yaml

  # Force overwrite existing file
  widgetuat init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the objectives file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing objectives file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("objectives file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/widgetuat.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write objectives file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write objectives file: %w", err)
	}

	fmt.Printf("Created objectives file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - The base URL of the site under test")
	fmt.Println("  - Page objectives and key UI elements")
	fmt.Println("  - Viewport sizes and custom workflows")

	return nil
}
