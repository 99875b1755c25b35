package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// StageResult is the outcome of one stage.
type StageResult struct {
	Stage  Stage
	Status Status
	// Err is set for Failed stages; a *PropagatedFailureError when the stage never ran.
	Err error
	// Reason explains why a stage is still Pending after the run.
	Reason   string
	Started  time.Time
	Finished time.Time
}

// Propagated reports whether the stage failed only because a dependency failed.
func (r StageResult) Propagated() bool {
	var pErr *PropagatedFailureError
	return r.Status == StatusFailed && errors.As(r.Err, &pErr)
}

// Duration returns how long the stage ran.
func (r StageResult) Duration() time.Duration {
	if r.Started.IsZero() || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Report is the per-stage status of a bootstrap run, in topological order.
// Every stage has an entry; none is left blank.
type Report struct {
	results []*StageResult
	byID    map[string]*StageResult
}

func newReport(order []Stage) *Report {
	r := &Report{
		results: make([]*StageResult, len(order)),
		byID:    make(map[string]*StageResult, len(order)),
	}
	for i, s := range order {
		res := &StageResult{Stage: s, Status: StatusPending}
		r.results[i] = res
		r.byID[s.ID] = res
	}
	return r
}

// Results returns a copy of every stage result.
func (r *Report) Results() []StageResult {
	out := make([]StageResult, len(r.results))
	for i, res := range r.results {
		out[i] = *res
	}
	return out
}

// Result returns the result of stage id.
func (r *Report) Result(id string) (StageResult, bool) {
	res, ok := r.byID[id]
	if !ok {
		return StageResult{}, false
	}
	return *res, true
}

// Status returns the status of stage id, or "" for an unknown stage.
func (r *Report) Status(id string) Status {
	if res, ok := r.byID[id]; ok {
		return res.Status
	}
	return ""
}

// Healthy reports whether every stage is Healthy.
func (r *Report) Healthy() bool {
	for _, res := range r.results {
		if res.Status != StatusHealthy {
			return false
		}
	}
	return true
}

// Counts returns the number of stages per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, res := range r.results {
		counts[res.Status]++
	}
	return counts
}

// Err aggregates every failed and never-started stage, or returns nil
// when all stages are Healthy.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, res := range r.results {
		switch res.Status {
		case StatusFailed:
			if res.Propagated() {
				result = multierror.Append(result, res.Err)
			} else {
				result = multierror.Append(result, &StageError{Stage: res.Stage.ID, Err: res.Err})
			}
		case StatusPending, StatusRunning:
			result = multierror.Append(result, fmt.Errorf("stage %s %s: %s", res.Stage.ID, res.Status, res.Reason))
		}
	}
	return result.ErrorOrNil()
}

type stageJSON struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Node       string    `json:"node,omitempty"`
	DependsOn  []string  `json:"dependsOn,omitempty"`
	Status     Status    `json:"status"`
	Propagated bool      `json:"propagated,omitempty"`
	Error      string    `json:"error,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Started    time.Time `json:"started,omitzero"`
	Finished   time.Time `json:"finished,omitzero"`
	DurationMS int64     `json:"durationMs,omitempty"`
}

// MarshalJSON renders the report as a list of stage entries.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := make([]stageJSON, len(r.results))
	for i, res := range r.results {
		out[i] = stageJSON{
			ID:         res.Stage.ID,
			Kind:       res.Stage.Kind,
			Node:       res.Stage.Node,
			DependsOn:  res.Stage.DependsOn,
			Status:     res.Status,
			Propagated: res.Propagated(),
			Reason:     res.Reason,
			Started:    res.Started,
			Finished:   res.Finished,
			DurationMS: res.Duration().Milliseconds(),
		}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	return json.Marshal(out)
}
