// Package retry retries transient failures with either exponential or
// fixed-interval backoff.
//
// [WithExponentialBackoff] is used for SSH connection setup and other
// operations whose failures clear up over time. [WithConstantInterval] polls
// at a fixed pace and is the basis of health probe waits. Errors wrapped with
// [Fatal] stop retrying immediately.
package retry
