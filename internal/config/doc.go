// Package config defines the environment configuration consumed by the
// topology deriver and the bootstrap sequencer.
//
// An [EnvironmentConfig] is loaded once per deployment from k3smox.yaml,
// completed with [ApplyDefaults] and checked with [EnvironmentConfig.Validate].
// It is treated as read-only afterwards: every downstream value (node
// identities, stage graph, probe policies) is derived from it rather than
// read from ambient state.
package config
