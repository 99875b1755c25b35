// Package async provides utilities for parallel task execution.
//
// This package contains generic helpers for running multiple operations concurrently,
// collecting results, and handling errors. It backs parallel VM provisioning
// in provisioning.EnsureAll.
package async

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// At most limit tasks run at the same time; limit <= 0 means no limit.
// Every failure is collected, so the returned error lists each failed task.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "k3s-master-0", Func: provisionMaster},
//	    {Name: "k3s-worker-0", Func: provisionWorker},
//	}
//	if err := RunParallel(ctx, tasks, 0); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		name string
		err  error
	}

	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}
	sem := semaphore.NewWeighted(int64(limit))
	resultChan := make(chan result, len(tasks))

	for _, task := range tasks {
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				resultChan <- result{name: task.Name, err: err}
				return
			}
			defer sem.Release(1)
			resultChan <- result{name: task.Name, err: task.Func(ctx)}
		}()
	}

	var errs *multierror.Error
	for range len(tasks) {
		res := <-resultChan
		if res.err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", res.name, res.err))
		}
	}

	return errs.ErrorOrNil()
}
