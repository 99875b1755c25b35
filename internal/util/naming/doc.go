// Package naming provides consistent naming functions for cluster nodes,
// bootstrap stages and persisted artifacts.
//
// Node names follow the pattern {cluster}-{role}-{index}. The index is the
// zero-based position within the role, so names are stable across repeated
// derivations of the same configuration and never carry random suffixes.
package naming
