package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables overriding the probe settings of a loaded file.
const (
	EnvProbeAttempts = "K3SMOX_PROBE_ATTEMPTS"
	EnvProbeInterval = "K3SMOX_PROBE_INTERVAL"
	EnvProbeTimeout  = "K3SMOX_PROBE_TIMEOUT"
	EnvStageTimeout  = "K3SMOX_STAGE_TIMEOUT"
	EnvMaxParallel   = "K3SMOX_MAX_PARALLEL"
)

// ApplyProbeEnv overrides probe settings from the environment.
// Unset or unparsable variables leave the current value untouched.
//
// Environment Variables:
//   - K3SMOX_PROBE_ATTEMPTS (default: 30)
//   - K3SMOX_PROBE_INTERVAL (default: 10s)
//   - K3SMOX_PROBE_TIMEOUT (default: 5m)
//   - K3SMOX_STAGE_TIMEOUT (default: 10m)
//   - K3SMOX_MAX_PARALLEL (default: 0, unlimited)
func ApplyProbeEnv(p ProbeSettings) ProbeSettings {
	p.Attempts = parseInt(EnvProbeAttempts, p.Attempts)
	p.Interval = parseDuration(EnvProbeInterval, p.Interval)
	p.Timeout = parseDuration(EnvProbeTimeout, p.Timeout)
	p.StageTimeout = parseDuration(EnvStageTimeout, p.StageTimeout)
	p.MaxParallel = parseInt(EnvMaxParallel, p.MaxParallel)
	return p
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
