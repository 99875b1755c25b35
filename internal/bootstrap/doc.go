// Package bootstrap sequences the installation of a K3s cluster.
//
// The install order is an explicit dependency graph of stages:
//
//	cluster-provision
//	  └─ master-install-0 ─┬─ master-install-N
//	                       ├─ credential-fetch ── worker-install-N
//	                       └─ add-on stages (each with its own predecessors)
//
// [BuildGraph] derives that graph from a topology and an add-on plan,
// [TopologicalOrder] linearises it, and [Runner] executes it: stages whose
// dependencies are all Healthy start concurrently, every stage is gated on
// its readiness probe, and a failure marks every dependent stage Failed
// without running it while unrelated branches carry on.
package bootstrap
