package helm

// DefaultChartSpecs contains the default chart specifications for each add-on.
// Users can override these settings via config.HelmChartConfig.
var DefaultChartSpecs = map[string]ChartSpec{
	"metallb": {
		Repository: "https://metallb.github.io/metallb",
		Name:       "metallb",
		Version:    "0.14.9",
	},
	"cert-manager": {
		Repository: "https://charts.jetstack.io",
		Name:       "cert-manager",
		Version:    "v1.19.2",
	},
	"traefik": {
		Repository: "https://traefik.github.io/charts",
		Name:       "traefik",
		Version:    "39.0.0",
	},
	"argo-cd": {
		Repository: "https://argoproj.github.io/argo-helm",
		Name:       "argo-cd",
		Version:    "9.3.5",
	},
}
