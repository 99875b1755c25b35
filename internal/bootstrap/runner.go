package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/health"
)

// DefaultStageTimeout caps the running period of a stage.
const DefaultStageTimeout = 10 * time.Minute

// Task is the work behind one stage. Run performs the action; Probe, if
// set, must then succeed before the stage counts as Healthy.
type Task struct {
	Run   func(ctx context.Context) error
	Probe health.Probe
	// Policy overrides the runner's probe policy for this stage.
	Policy *health.Policy
}

// Runner executes a Graph. Stages start as soon as all their dependencies
// are Healthy, up to MaxParallel at a time.
type Runner struct {
	graph        *Graph
	tasks        map[string]Task
	stageTimeout time.Duration
	policy       health.Policy
	maxParallel  int
	metrics      *Metrics
	observers    multiObserver
	now          func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithStageTimeout bounds each stage's Run plus probe wait.
func WithStageTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.stageTimeout = d
	}
}

// WithProbePolicy sets the default probe policy.
func WithProbePolicy(p health.Policy) Option {
	return func(r *Runner) {
		r.policy = p
	}
}

// WithMaxParallel limits concurrently running stages; n <= 0 means no limit.
func WithMaxParallel(n int) Option {
	return func(r *Runner) {
		r.maxParallel = n
	}
}

// WithMetrics records stage outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithObserver adds an observer of stage events.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observers = append(r.observers, o)
	}
}

// NewRunner returns a runner for g. Every stage of g needs a task.
func NewRunner(g *Graph, tasks map[string]Task, opts ...Option) (*Runner, error) {
	for _, s := range g.stages {
		if _, ok := tasks[s.ID]; !ok {
			return nil, fmt.Errorf("no task for stage %s", s.ID)
		}
	}
	for id := range tasks {
		if _, ok := g.index[id]; !ok {
			return nil, fmt.Errorf("task for stage %s: %w", id, ErrUnknownStage)
		}
	}

	r := &Runner{
		graph:        g,
		tasks:        tasks,
		stageTimeout: DefaultStageTimeout,
		policy:       health.Policy{Attempts: 1, Interval: time.Second, Timeout: DefaultStageTimeout},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type stageDone struct {
	id  string
	err error
}

// Run executes the graph and returns the report. The returned error is
// non-nil only for a graph that cannot run at all (a *CycleError); stage
// failures are in the report, see Report.Err.
//
// Cancelling ctx stops new stages from starting. Stages already running
// continue, bounded by their stage timeout, and stages never started stay
// Pending with a reason.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	order, err := TopologicalOrder(r.graph)
	if err != nil {
		return nil, err
	}

	logger := logr.FromContextOrDiscard(ctx)
	observers := append(multiObserver{LogObserver{Logger: logger}}, r.observers...)

	report := newReport(order)
	waiting := make(map[string]int, len(order))
	var ready []Stage
	for _, s := range order {
		waiting[s.ID] = len(s.DependsOn)
		if len(s.DependsOn) == 0 {
			ready = append(ready, s)
		}
	}

	done := make(chan stageDone)
	running := 0

	for {
		for len(ready) > 0 && ctx.Err() == nil && (r.maxParallel <= 0 || running < r.maxParallel) {
			s := ready[0]
			ready = ready[1:]

			res := report.byID[s.ID]
			res.Status = StatusRunning
			res.Started = r.now()
			observers.Event(Event{Type: EventStageStarted, Stage: s, Timestamp: res.Started})

			running++
			go func() {
				done <- stageDone{id: s.ID, err: r.execute(ctx, s)}
			}()
		}

		if running == 0 {
			break
		}

		d := <-done
		running--

		res := report.byID[d.id]
		res.Finished = r.now()

		if d.err != nil {
			res.Status = StatusFailed
			res.Err = d.err
			r.metrics.record(res)
			observers.Event(Event{Type: EventStageFailed, Stage: res.Stage, Err: d.err, Duration: res.Duration(), Timestamp: res.Finished})
			r.propagate(report, d.id, observers)
			continue
		}

		res.Status = StatusHealthy
		r.metrics.record(res)
		observers.Event(Event{Type: EventStageHealthy, Stage: res.Stage, Duration: res.Duration(), Timestamp: res.Finished})

		for _, dep := range r.graph.dependents[d.id] {
			waiting[dep]--
			if waiting[dep] == 0 && report.byID[dep].Status == StatusPending {
				ready = insertByOrder(ready, report.byID[dep].Stage, r.graph.index)
			}
		}
	}

	if ctx.Err() != nil {
		reason := fmt.Sprintf("not started: bootstrap cancelled (%v)", context.Cause(ctx))
		for _, res := range report.results {
			if res.Status == StatusPending {
				res.Reason = reason
				observers.Event(Event{Type: EventStageSkipped, Stage: res.Stage, Timestamp: r.now()})
			}
		}
	}

	return report, nil
}

// propagate fails every pending stage that transitively depends on failed.
func (r *Runner) propagate(report *Report, failed string, observers Observer) {
	for _, id := range r.graph.TransitiveDependents(failed) {
		res := report.byID[id]
		if res.Status != StatusPending {
			continue
		}

		// Dependents are visited nearest first, so a failed direct
		// dependency has already been marked.
		var dep string
		for _, p := range res.Stage.DependsOn {
			if report.byID[p].Status == StatusFailed {
				dep = p
				break
			}
		}

		res.Status = StatusFailed
		res.Err = &PropagatedFailureError{Stage: id, Dependency: dep, Origin: failed}
		res.Finished = r.now()
		r.metrics.record(res)
		observers.Event(Event{Type: EventStagePropagated, Stage: res.Stage, Err: res.Err, Timestamp: res.Finished})
	}
}

// execute runs one stage on a context detached from the caller's
// cancellation and bounded by the stage timeout.
func (r *Runner) execute(parent context.Context, s Stage) (err error) {
	task := r.tasks[s.ID]

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.stageTimeout)
	defer cancel()
	ctx = logr.NewContext(ctx, logr.FromContextOrDiscard(parent).WithValues("stage", s.ID))

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("stage %s panicked: %v", s.ID, p)
		}
	}()

	if task.Run != nil {
		if err := task.Run(ctx); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return &health.TimeoutError{Probe: s.ID, Timeout: r.stageTimeout, Last: err}
			}
			return err
		}
	}

	if task.Probe != nil {
		policy := r.policy
		if task.Policy != nil {
			policy = *task.Policy
		}
		if err := health.Wait(ctx, s.ID, task.Probe, policy); err != nil {
			return err
		}
	}

	return nil
}

func insertByOrder(ready []Stage, s Stage, index map[string]int) []Stage {
	i, _ := slices.BinarySearchFunc(ready, s, func(a, b Stage) int {
		return index[a.ID] - index[b.ID]
	})
	return slices.Insert(ready, i, s)
}
