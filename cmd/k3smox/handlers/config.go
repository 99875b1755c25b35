// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/ui"
)

// Output formats accepted by plan and graph.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// findConfigFile locates k3smox.yaml when no path is given.
	findConfigFile = config.FindConfigFile

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.LoadFile

	// stdout receives command output.
	stdout io.Writer = os.Stdout

	// stderr receives log output.
	stderr io.Writer = os.Stderr

	// colorOutput reports whether stdout should be styled.
	colorOutput = func() bool { return ui.IsTerminal(os.Stdout) }
)

// loadConfig loads configuration from the given path or auto-detects k3smox.yaml.
func loadConfig(configPath string) (*config.EnvironmentConfig, error) {
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w", err)
		}
		configPath = found
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, nil
}

func checkOutput(output string) error {
	switch output {
	case OutputText, OutputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want %s or %s)", output, OutputText, OutputJSON)
	}
}

func uiOptions() ui.Options {
	return ui.Options{Color: colorOutput()}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
