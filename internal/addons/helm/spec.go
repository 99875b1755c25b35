package helm

import "github.com/imamik/k3smox/internal/config"

// ChartSpec identifies a chart in a repository.
type ChartSpec struct {
	Repository string
	Name       string
	Version    string
}

// GetChartSpec returns the chart spec for the given add-on name,
// applying any overrides from the HelmChartConfig.
func GetChartSpec(name string, helmCfg config.HelmChartConfig) ChartSpec {
	spec, ok := DefaultChartSpecs[name]
	if !ok {
		// Unknown add-ons start empty; the caller must override everything.
		spec = ChartSpec{}
	}

	if helmCfg.Repository != "" {
		spec.Repository = helmCfg.Repository
	}
	if helmCfg.Chart != "" {
		spec.Name = helmCfg.Chart
	}
	if helmCfg.Version != "" {
		spec.Version = helmCfg.Version
	}

	return spec
}
