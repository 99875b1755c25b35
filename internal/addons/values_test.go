package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3smox/internal/addons/helm"
	tu "github.com/imamik/k3smox/internal/testing"
)

func nested(t *testing.T, v helm.Values, path ...string) any {
	t.Helper()
	var cur any = v
	for _, key := range path {
		m, ok := cur.(helm.Values)
		require.Truef(t, ok, "%s is not a map", key)
		cur, ok = m[key]
		require.Truef(t, ok, "missing key %s", key)
	}
	return cur
}

func TestBuildMetalLBValues(t *testing.T) {
	t.Parallel()

	cfg := tu.NewConfigBuilder().WithMetalLB("default", "10.10.0.200-10.10.0.220").Build()
	values := buildMetalLBValues(cfg)

	assert.Equal(t, false, nested(t, values, "speaker", "frr", "enabled"))
	assert.Equal(t, "info", nested(t, values, "controller", "logLevel"))
}

func TestBuildCertManagerValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		workers  int
		replicas int
	}{
		{"single worker", 1, 1},
		{"two workers", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tu.NewConfigBuilder().WithWorkers(tt.workers, 130).WithCertManager("ops@example.com").Build()
			values := buildCertManagerValues(cfg)

			assert.Equal(t, true, nested(t, values, "crds", "enabled"))
			assert.Equal(t, tt.replicas, nested(t, values, "replicaCount"))
			assert.Equal(t, tt.replicas, nested(t, values, "webhook", "replicaCount"))
			assert.Equal(t, tt.replicas > 1, nested(t, values, "podDisruptionBudget", "enabled"))
		})
	}
}

func TestBuildTraefikValues(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg := tu.NewConfigBuilder().WithTraefik().Build()
		values := buildTraefikValues(cfg)

		assert.Equal(t, "LoadBalancer", nested(t, values, "service", "type"))
		assert.Equal(t, "Local", nested(t, values, "service", "spec", "externalTrafficPolicy"))
		assert.Equal(t, true, nested(t, values, "ingressClass", "isDefaultClass"))
		assert.Equal(t, 1, nested(t, values, "deployment", "replicas"))
		assert.NotContains(t, nested(t, values, "service").(helm.Values), "annotations")
	})

	t.Run("pinned address and overrides", func(t *testing.T) {
		t.Parallel()
		cfg := tu.NewConfigBuilder().WithWorkers(3, 130).WithTraefik().Build()
		cfg.Addons.Traefik.LoadBalancerIP = "10.10.0.200"
		cfg.Addons.Traefik.Helm.Values = map[string]any{
			"deployment": map[string]any{"replicas": 3},
		}
		values := buildTraefikValues(cfg)

		assert.Equal(t, "10.10.0.200", nested(t, values, "service", "annotations", "metallb.universe.tf/loadBalancerIPs"))
		assert.Equal(t, 3, nested(t, values, "deployment", "replicas"))
		assert.Equal(t, "Deployment", nested(t, values, "deployment", "kind"))
	})
}

func TestBuildArgoCDValues(t *testing.T) {
	t.Parallel()

	t.Run("no hostname", func(t *testing.T) {
		t.Parallel()
		cfg := tu.NewConfigBuilder().WithArgoCD("", "").Build()
		values := buildArgoCDValues(cfg)

		assert.Equal(t, true, nested(t, values, "configs", "params", "server.insecure"))
		assert.Equal(t, false, nested(t, values, "dex", "enabled"))
		assert.NotContains(t, nested(t, values, "server").(helm.Values), "ingress")
	})

	t.Run("hostname with issuer", func(t *testing.T) {
		t.Parallel()
		cfg := tu.NewConfigBuilder().WithAllAddons().Build()
		cfg.Addons.ArgoCD.Hostname = "argocd.lab.example.com"
		values := buildArgoCDValues(cfg)

		assert.Equal(t, "argocd.lab.example.com", nested(t, values, "server", "ingress", "hostname"))
		assert.Equal(t, true, nested(t, values, "server", "ingress", "tls"))
		assert.Equal(t, cfg.Addons.CertManager.IssuerName,
			nested(t, values, "server", "ingress", "annotations", "cert-manager.io/cluster-issuer"))
	})
}
