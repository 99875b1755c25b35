// Package testing provides test utilities, builders, and mocks shared by unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: fluent builder for environment configurations
//   - MockExecutor: testify mock of ssh.Executor
//   - ScriptedExecutor: function-field executor answering by command prefix
//   - MockProvisioner: testify mock of provisioning.Provisioner
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithMasters(1, 120).
//	    WithWorkers(2, 130).
//	    Build()
package testing
