package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/k3smox/internal/config"
)

func TestGetChartSpec(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		addon   string
		helmCfg config.HelmChartConfig
		want    ChartSpec
	}{
		{
			name:  "metallb defaults",
			addon: "metallb",
			want:  ChartSpec{Repository: "https://metallb.github.io/metallb", Name: "metallb", Version: "0.14.9"},
		},
		{
			name:  "cert-manager defaults",
			addon: "cert-manager",
			want:  ChartSpec{Repository: "https://charts.jetstack.io", Name: "cert-manager", Version: "v1.19.2"},
		},
		{
			name:    "version override",
			addon:   "traefik",
			helmCfg: config.HelmChartConfig{Version: "38.0.0"},
			want:    ChartSpec{Repository: "https://traefik.github.io/charts", Name: "traefik", Version: "38.0.0"},
		},
		{
			name:  "all overrides",
			addon: "argo-cd",
			helmCfg: config.HelmChartConfig{
				Repository: "https://mirror.example.com/charts",
				Chart:      "argo-cd-fork",
				Version:    "1.0.0",
			},
			want: ChartSpec{Repository: "https://mirror.example.com/charts", Name: "argo-cd-fork", Version: "1.0.0"},
		},
		{
			name:  "unknown addon returns empty",
			addon: "unknown-addon",
			want:  ChartSpec{},
		},
		{
			name:    "unknown addon with overrides",
			addon:   "podinfo",
			helmCfg: config.HelmChartConfig{Repository: "https://stefanprodan.github.io/podinfo", Chart: "podinfo"},
			want:    ChartSpec{Repository: "https://stefanprodan.github.io/podinfo", Name: "podinfo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetChartSpec(tt.addon, tt.helmCfg))
		})
	}
}

func TestDefaultChartSpecs_AllHaveRequiredFields(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"metallb", "cert-manager", "traefik", "argo-cd"} {
		spec, ok := DefaultChartSpecs[name]
		if assert.True(t, ok, name) {
			assert.NotEmpty(t, spec.Repository, name)
			assert.NotEmpty(t, spec.Name, name)
			assert.NotEmpty(t, spec.Version, name)
		}
	}
}

func TestGetChartSpec_DoesNotMutateDefaults(t *testing.T) {
	t.Parallel()
	_ = GetChartSpec("metallb", config.HelmChartConfig{Version: "0.0.1"})
	assert.Equal(t, "0.14.9", DefaultChartSpecs["metallb"].Version)
}

func TestNamespaceManifest(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "apiVersion: v1\nkind: Namespace\nmetadata:\n  name: metallb-system\n", NamespaceManifest("metallb-system", nil))

	got := NamespaceManifest("metallb-system", map[string]string{
		"pod-security.kubernetes.io/warn":    "privileged",
		"pod-security.kubernetes.io/enforce": "privileged",
	})
	assert.Contains(t, got, "  labels:\n    pod-security.kubernetes.io/enforce: \"privileged\"\n    pod-security.kubernetes.io/warn: \"privileged\"\n")
}
