package addons

import (
	"github.com/imamik/k3smox/internal/addons/helm"
	"github.com/imamik/k3smox/internal/config"
)

// buildMetalLBValues creates helm values for MetalLB in L2 mode.
func buildMetalLBValues(cfg *config.EnvironmentConfig) helm.Values {
	values := helm.Values{
		"speaker": helm.Values{
			"frr": helm.Values{"enabled": false},
			"tolerations": []helm.Values{
				{"key": "node-role.kubernetes.io/control-plane", "operator": "Exists", "effect": "NoSchedule"},
			},
		},
		"controller": helm.Values{
			"logLevel": "info",
		},
	}
	return helm.MergeCustomValues(values, cfg.Addons.MetalLB.Helm.Values)
}

// buildCertManagerValues creates helm values for cert-manager. CRDs are
// installed by the chart so that the issuer stage can rely on them.
func buildCertManagerValues(cfg *config.EnvironmentConfig) helm.Values {
	replicas := 1
	if cfg.Workers.Count > 1 {
		replicas = 2
	}

	values := helm.Values{
		"crds":            helm.Values{"enabled": true},
		"startupapicheck": helm.Values{"enabled": false},
		"replicaCount":    replicas,
		"webhook": helm.Values{
			"replicaCount": replicas,
		},
		"cainjector": helm.Values{
			"replicaCount": 1,
		},
		"podDisruptionBudget": helm.Values{
			"enabled":        replicas > 1,
			"maxUnavailable": 1,
		},
	}
	return helm.MergeCustomValues(values, cfg.Addons.CertManager.Helm.Values)
}

// buildTraefikValues creates helm values for Traefik behind a MetalLB
// LoadBalancer service.
func buildTraefikValues(cfg *config.EnvironmentConfig) helm.Values {
	replicas := 1
	if cfg.Workers.Count >= 3 {
		replicas = 2
	}

	service := helm.Values{
		"enabled": true,
		"type":    "LoadBalancer",
		"spec": helm.Values{
			"externalTrafficPolicy": "Local",
		},
	}
	if ip := cfg.Addons.Traefik.LoadBalancerIP; ip != "" {
		service["annotations"] = helm.Values{
			"metallb.universe.tf/loadBalancerIPs": ip,
		}
	}

	values := helm.Values{
		"deployment": helm.Values{
			"enabled":  true,
			"kind":     "Deployment",
			"replicas": replicas,
		},
		"ingressClass": helm.Values{
			"enabled":        true,
			"isDefaultClass": true,
			"name":           "traefik",
		},
		"ingressRoute": helm.Values{
			"dashboard": helm.Values{"enabled": false},
		},
		"providers": helm.Values{
			"kubernetesIngress": helm.Values{
				"enabled":                   true,
				"publishedService":          helm.Values{"enabled": true},
				"allowExternalNameServices": false,
			},
		},
		"service": service,
	}
	return helm.MergeCustomValues(values, cfg.Addons.Traefik.Helm.Values)
}

// buildArgoCDValues creates helm values for ArgoCD. With a hostname the
// server is exposed through Traefik, with a certificate from the cluster
// issuer when cert-manager is enabled.
func buildArgoCDValues(cfg *config.EnvironmentConfig) helm.Values {
	argo := cfg.Addons.ArgoCD

	server := helm.Values{
		"replicas": 1,
	}
	if argo.Hostname != "" {
		ingress := helm.Values{
			"enabled":          true,
			"ingressClassName": "traefik",
			"hostname":         argo.Hostname,
		}
		if cfg.Addons.CertManager.Enabled {
			ingress["tls"] = true
			ingress["annotations"] = helm.Values{
				"cert-manager.io/cluster-issuer": cfg.Addons.CertManager.IssuerName,
			}
		}
		server["ingress"] = ingress
	}

	values := helm.Values{
		"global": helm.Values{
			"domain": argo.Hostname,
		},
		"configs": helm.Values{
			"params": helm.Values{
				// TLS terminates at Traefik.
				"server.insecure": true,
			},
		},
		"server": server,
		"dex":    helm.Values{"enabled": false},
	}
	return helm.MergeCustomValues(values, argo.Helm.Values)
}
