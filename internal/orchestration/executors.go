package orchestration

import (
	"fmt"
	"sync"

	"github.com/imamik/k3smox/internal/platform/ssh"
)

// executors hands out one SSH executor per host.
type executors struct {
	dial ssh.Factory

	mu     sync.Mutex
	byHost map[string]ssh.Executor
}

func newExecutors(dial ssh.Factory) *executors {
	return &executors{dial: dial, byHost: make(map[string]ssh.Executor)}
}

func (e *executors) get(host string) (ssh.Executor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if exec, ok := e.byHost[host]; ok {
		return exec, nil
	}
	exec, err := e.dial(host)
	if err != nil {
		return nil, fmt.Errorf("ssh to %s: %w", host, err)
	}
	e.byHost[host] = exec
	return exec, nil
}
