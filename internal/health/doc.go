// Package health implements the readiness probes that gate bootstrap stages.
//
// A stage is complete only once its probe succeeds. [Wait] polls a probe at a
// fixed interval for a bounded number of attempts, all inside an overall
// timeout that is independent of the interval. Node-level probes run over
// SSH; cluster-level probes query the Kubernetes API through client-go.
package health
