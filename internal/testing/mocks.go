package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes"

	"github.com/imamik/k3smox/internal/addons/k8sclient"
	"github.com/imamik/k3smox/internal/provisioning"
)

// MockExecutor is a testify mock of ssh.Executor.
type MockExecutor struct {
	mock.Mock
}

// Execute records the call and returns the configured output and error.
func (m *MockExecutor) Execute(ctx context.Context, command string) (string, error) {
	args := m.Called(ctx, command)
	return args.String(0), args.Error(1)
}

// OnCommand expects command and answers with output and err.
func (m *MockExecutor) OnCommand(command, output string, err error) *mock.Call {
	return m.On("Execute", mock.Anything, command).Return(output, err)
}

// ScriptedExecutor answers commands by longest matching prefix and records
// every command it sees. It is safe for concurrent use.
type ScriptedExecutor struct {
	mu        sync.Mutex
	responses map[string]func() (string, error)
	commands  []string

	// Fallback answers commands without a matching prefix. If nil they fail.
	Fallback func(command string) (string, error)
}

// NewScriptedExecutor returns an executor without responses.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{responses: make(map[string]func() (string, error))}
}

// On registers a fixed answer for commands starting with prefix.
func (s *ScriptedExecutor) On(prefix, output string, err error) *ScriptedExecutor {
	return s.OnFunc(prefix, func() (string, error) { return output, err })
}

// OnFunc registers a dynamic answer for commands starting with prefix.
func (s *ScriptedExecutor) OnFunc(prefix string, fn func() (string, error)) *ScriptedExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[prefix] = fn
	return s
}

// Execute implements ssh.Executor.
func (s *ScriptedExecutor) Execute(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.commands = append(s.commands, command)
	var match string
	for prefix := range s.responses {
		if strings.HasPrefix(command, prefix) && len(prefix) > len(match) {
			match = prefix
		}
	}
	fn := s.responses[match]
	fallback := s.Fallback
	s.mu.Unlock()

	if fn != nil {
		return fn()
	}
	if fallback != nil {
		return fallback(command)
	}
	return "", fmt.Errorf("unexpected command: %s", command)
}

// Commands returns a copy of every command executed so far.
func (s *ScriptedExecutor) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// MockProvisioner is a testify mock of provisioning.Provisioner.
type MockProvisioner struct {
	mock.Mock
}

// EnsureVM records the call and returns the configured handle and error.
func (m *MockProvisioner) EnsureVM(ctx context.Context, req provisioning.NodeRequest) (*provisioning.VMHandle, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, provisioning.NodeRequest) *provisioning.VMHandle); ok {
		return fn(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioning.VMHandle), args.Error(1)
}

// NewMockProvisioner returns a provisioner that creates every requested VM.
func NewMockProvisioner() *MockProvisioner {
	m := &MockProvisioner{}
	m.On("EnsureVM", mock.Anything, mock.Anything).Return(
		func(_ context.Context, req provisioning.NodeRequest) *provisioning.VMHandle {
			return &provisioning.VMHandle{VMID: req.VMID, Name: req.Name, Node: req.ProxmoxNode, Created: true}
		},
		nil,
	)
	return m
}

// MockKubeClient is a testify mock of k8sclient.Client. Clientset returns
// CS, typically a client-go fake.
type MockKubeClient struct {
	mock.Mock
	CS kubernetes.Interface
}

var _ k8sclient.Client = (*MockKubeClient)(nil)

// ApplyManifests records the call.
func (m *MockKubeClient) ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error {
	args := m.Called(ctx, manifests, fieldManager)
	return args.Error(0)
}

// ApplyObjects records the call.
func (m *MockKubeClient) ApplyObjects(ctx context.Context, objs []*unstructured.Unstructured, fieldManager string) error {
	args := m.Called(ctx, objs, fieldManager)
	return args.Error(0)
}

// RefreshDiscovery records the call.
func (m *MockKubeClient) RefreshDiscovery(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// HasAPIResource records the call.
func (m *MockKubeClient) HasAPIResource(ctx context.Context, groupVersion, kind string) (bool, error) {
	args := m.Called(ctx, groupVersion, kind)
	return args.Bool(0), args.Error(1)
}

// Clientset returns CS.
func (m *MockKubeClient) Clientset() kubernetes.Interface {
	return m.CS
}
