package bootstrap

import (
	"time"

	"github.com/go-logr/logr"
)

// EventType is the kind of stage transition an Event reports.
type EventType string

const (
	EventStageStarted    EventType = "stage.started"
	EventStageHealthy    EventType = "stage.healthy"
	EventStageFailed     EventType = "stage.failed"
	EventStagePropagated EventType = "stage.propagated"
	EventStageSkipped    EventType = "stage.skipped"
)

// Event is one stage transition during a run.
type Event struct {
	Type      EventType
	Stage     Stage
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

// Observer receives stage events. Events are delivered from a single
// goroutine, in the order the transitions happen.
type Observer interface {
	Event(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Event calls f(e).
func (f ObserverFunc) Event(e Event) {
	f(e)
}

// LogObserver writes every event to a logr.Logger.
type LogObserver struct {
	Logger logr.Logger
}

// Event implements Observer.
func (o LogObserver) Event(e Event) {
	kv := []any{"stage", e.Stage.ID, "kind", string(e.Stage.Kind)}
	if e.Stage.Node != "" {
		kv = append(kv, "node", e.Stage.Node)
	}

	switch e.Type {
	case EventStageStarted:
		o.Logger.Info("stage started", kv...)
	case EventStageHealthy:
		o.Logger.Info("stage healthy", append(kv, "duration", e.Duration.Round(time.Millisecond))...)
	case EventStageFailed:
		o.Logger.Error(e.Err, "stage failed", append(kv, "duration", e.Duration.Round(time.Millisecond))...)
	case EventStagePropagated:
		o.Logger.Info("stage blocked by failed dependency", append(kv, "reason", e.Err.Error())...)
	case EventStageSkipped:
		o.Logger.Info("stage not started", kv...)
	}
}

type multiObserver []Observer

func (m multiObserver) Event(e Event) {
	for _, o := range m {
		o.Event(e)
	}
}
