package k3s

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/k3smox/internal/platform/ssh"
	"github.com/imamik/k3smox/internal/topology"
)

// Credentials are the cluster secrets read from the first master.
type Credentials struct {
	// Token joins further servers and agents.
	Token string
	// Kubeconfig is the admin kubeconfig with the server URL rewritten to
	// the master's address.
	Kubeconfig []byte
	// Server is the API server URL.
	Server string
}

// Join returns the join settings derived from c.
func (c *Credentials) Join() Join {
	return Join{URL: c.Server, Token: c.Token}
}

// Fetch reads the join token and kubeconfig from master.
func Fetch(ctx context.Context, exec ssh.Executor, master topology.NodeIdentity) (*Credentials, error) {
	out, err := exec.Execute(ctx, "sudo cat "+TokenPath)
	if err != nil {
		return nil, fmt.Errorf("read join token from %s: %w", master.Name, err)
	}
	token := strings.TrimSpace(out)
	if token == "" {
		return nil, fmt.Errorf("join token on %s is empty", master.Name)
	}

	raw, err := exec.Execute(ctx, "sudo cat "+KubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("read kubeconfig from %s: %w", master.Name, err)
	}

	server := ServerURL(master.IPv4)
	kubeconfig, err := RewriteServer([]byte(raw), server)
	if err != nil {
		return nil, fmt.Errorf("kubeconfig from %s: %w", master.Name, err)
	}

	return &Credentials{Token: token, Kubeconfig: kubeconfig, Server: server}, nil
}

// Source fetches the credentials of one master at most once. Failed
// fetches are not remembered, so a later call tries again.
type Source struct {
	exec   ssh.Executor
	master topology.NodeIdentity

	mu    sync.Mutex
	creds *Credentials
}

// NewSource returns a Source reading from master through exec.
func NewSource(exec ssh.Executor, master topology.NodeIdentity) *Source {
	return &Source{exec: exec, master: master}
}

// Get returns the cached credentials or fetches them.
func (s *Source) Get(ctx context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds != nil {
		return s.creds, nil
	}

	logr.FromContextOrDiscard(ctx).Info("fetching cluster credentials", "master", s.master.Name)
	creds, err := Fetch(ctx, s.exec, s.master)
	if err != nil {
		return nil, err
	}
	s.creds = creds
	return creds, nil
}

// Cached returns the credentials if a fetch already succeeded.
func (s *Source) Cached() (*Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, s.creds != nil
}
