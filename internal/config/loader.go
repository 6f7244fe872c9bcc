package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default objectives file name.
const DefaultConfigFile = ".widgetuat.yaml"

// ErrConfigNotFound is returned when the objectives file does not exist.
var ErrConfigNotFound = errors.New("objectives file not found")

// LoadConfigFile loads page objectives from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	// Initialize maps if nil so lookups never need a nil check
	if f.Viewports == nil {
		f.Viewports = make(map[string]Viewport)
	}
	if f.Pages == nil {
		f.Pages = make(map[string]PageObjective)
	}
	if f.Workflows == nil {
		f.Workflows = make(map[string][]string)
	}

	return &f, nil
}

// FindConfigFile searches for the objectives file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .widgetuat.yaml in the current directory
// 3. Look for .widgetuat.yaml in the user's home directory
//
// Returns the path to the objectives file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
