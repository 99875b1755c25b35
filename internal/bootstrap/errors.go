package bootstrap

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency graph that cannot be linearised.
type CycleError struct {
	// Cycle lists the stages on one cycle, each depending on the next,
	// with the first stage repeated at the end.
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("bootstrap graph has a dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// PropagatedFailureError marks a stage that never ran because a stage it
// depends on failed.
type PropagatedFailureError struct {
	Stage string
	// Dependency is the failed direct dependency that blocked Stage.
	Dependency string
	// Origin is the stage whose own execution failed.
	Origin string
}

func (e *PropagatedFailureError) Error() string {
	if e.Dependency == e.Origin {
		return fmt.Sprintf("stage %s not run: dependency %s failed", e.Stage, e.Dependency)
	}
	return fmt.Sprintf("stage %s not run: dependency %s failed (caused by %s)", e.Stage, e.Dependency, e.Origin)
}

// StageError attaches the stage ID to a stage's own failure.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
