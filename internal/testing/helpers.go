package testing

import (
	"context"
	"testing"
	"time"
)

// K3sKubeconfig is the kubeconfig a fresh K3s server writes to
// /etc/rancher/k3s/k3s.yaml, pointing at the loopback address.
const K3sKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    certificate-authority-data: ZmFrZS1jYQ==
    server: https://127.0.0.1:6443
  name: default
contexts:
- context:
    cluster: default
    user: default
  name: default
current-context: default
users:
- name: default
  user:
    client-certificate-data: ZmFrZS1jZXJ0
    client-key-data: ZmFrZS1rZXk=
`

// TestContext returns a context that is cancelled when the test ends or
// after 30 seconds.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
