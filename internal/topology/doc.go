// Package topology derives the concrete node set of a cluster from its
// environment configuration.
//
// Derivation is a pure function: node names, VMIDs and addresses depend only
// on role, role index and the configured counts, so deriving the same
// configuration twice yields the same topology. Masters take the first
// network indices and workers continue directly after them in the same
// address block.
package topology
