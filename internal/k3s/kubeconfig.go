package k3s

import (
	"errors"
	"fmt"

	"k8s.io/client-go/tools/clientcmd"
)

// RewriteServer points every cluster entry of kubeconfig at server.
// K3s writes its kubeconfig with https://127.0.0.1:6443.
func RewriteServer(kubeconfig []byte, server string) ([]byte, error) {
	cfg, err := clientcmd.Load(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kubeconfig: %w", err)
	}
	if len(cfg.Clusters) == 0 {
		return nil, errors.New("kubeconfig has no clusters")
	}

	for _, cluster := range cfg.Clusters {
		cluster.Server = server
	}

	out, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize kubeconfig: %w", err)
	}
	return out, nil
}
