package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the file looked up by FindConfigFile.
const DefaultConfigFilename = "k3smox.yaml"

// LoadFile reads, defaults and validates the configuration at path.
// Probe settings are overridden from the environment after the file is read.
func LoadFile(path string) (*EnvironmentConfig, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating. The master
// count defaults to one only when the file does not set it.
func Parse(data []byte) (*EnvironmentConfig, error) {
	cfg := EnvironmentConfig{Masters: RoleConfig{Count: defaultMasterCount}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.Probes = ApplyProbeEnv(cfg.Probes)

	return &cfg, nil
}

// FindConfigFile searches the working directory and its parents for k3smox.yaml.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}
