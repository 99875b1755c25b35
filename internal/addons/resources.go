package addons

import (
	"bytes"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/util/labels"
)

const (
	metalLBNamespace     = "metallb-system"
	certManagerNamespace = "cert-manager"
	traefikNamespace     = "traefik"
	argoCDNamespace      = "argocd"

	metalLBGroupVersion     = "metallb.io/v1beta1"
	certManagerGroupVersion = "cert-manager.io/v1"
	argoCDGroupVersion      = "argoproj.io/v1alpha1"

	// L2AdvertisementName names the single advertisement covering all pools.
	L2AdvertisementName = "k3smox-l2"
	// RootApplicationName names the ArgoCD application syncing the GitOps repository.
	RootApplicationName = "root"
)

func newObject(apiVersion, kind, namespace, name string, spec map[string]any) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata": map[string]any{
			"name": name,
		},
		"spec": spec,
	}}
	obj.SetLabels(labels.NewLabelBuilder("").Build())
	if namespace != "" {
		obj.SetNamespace(namespace)
	}
	return obj
}

// MetalLBPools returns one IPAddressPool per configured pool plus an
// L2Advertisement announcing all of them.
func MetalLBPools(cfg config.MetalLBConfig) []*unstructured.Unstructured {
	objs := make([]*unstructured.Unstructured, 0, len(cfg.Pools)+1)
	names := make([]any, 0, len(cfg.Pools))

	for _, p := range cfg.Pools {
		addresses := make([]any, len(p.Addresses))
		for i, a := range p.Addresses {
			addresses[i] = a
		}
		objs = append(objs, newObject(metalLBGroupVersion, "IPAddressPool", metalLBNamespace, p.Name, map[string]any{
			"addresses": addresses,
		}))
		names = append(names, p.Name)
	}

	objs = append(objs, newObject(metalLBGroupVersion, "L2Advertisement", metalLBNamespace, L2AdvertisementName, map[string]any{
		"ipAddressPools": names,
	}))
	return objs
}

// ClusterIssuer returns the ACME ClusterIssuer solving HTTP-01 challenges
// through the Traefik ingress class.
func ClusterIssuer(cfg config.CertManagerConfig) *unstructured.Unstructured {
	return newObject(certManagerGroupVersion, "ClusterIssuer", "", cfg.IssuerName, map[string]any{
		"acme": map[string]any{
			"email":  cfg.Email,
			"server": cfg.ACMEServer,
			"privateKeySecretRef": map[string]any{
				"name": cfg.IssuerName + "-account-key",
			},
			"solvers": []any{
				map[string]any{
					"http01": map[string]any{
						"ingress": map[string]any{"ingressClassName": "traefik"},
					},
				},
			},
		},
	})
}

// RootApplication returns the ArgoCD Application that syncs cfg.Path of
// cfg.RepoURL into the cluster.
func RootApplication(cfg config.ArgoCDConfig) *unstructured.Unstructured {
	return newObject(argoCDGroupVersion, "Application", argoCDNamespace, RootApplicationName, map[string]any{
		"project": "default",
		"source": map[string]any{
			"repoURL":        cfg.RepoURL,
			"path":           cfg.Path,
			"targetRevision": cfg.Revision,
			"directory":      map[string]any{"recurse": true},
		},
		"destination": map[string]any{
			"server":    "https://kubernetes.default.svc",
			"namespace": argoCDNamespace,
		},
		"syncPolicy": map[string]any{
			"automated":   map[string]any{"prune": true, "selfHeal": true},
			"syncOptions": []any{"CreateNamespace=true", "ServerSideApply=true"},
		},
	})
}

// CustomResources returns every custom resource the enabled add-ons create,
// in apply order.
func CustomResources(cfg config.AddonsConfig) []*unstructured.Unstructured {
	var objs []*unstructured.Unstructured
	if cfg.MetalLB.Enabled {
		objs = append(objs, MetalLBPools(cfg.MetalLB)...)
	}
	if cfg.CertManager.Enabled {
		objs = append(objs, ClusterIssuer(cfg.CertManager))
	}
	if cfg.ArgoCD.Enabled && cfg.ArgoCD.RepoURL != "" {
		objs = append(objs, RootApplication(cfg.ArgoCD))
	}
	return objs
}

// ToYAML renders objs as a multi-document YAML stream.
func ToYAML(objs []*unstructured.Unstructured) ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range objs {
		data, err := yaml.Marshal(obj.Object)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s %s: %w", obj.GetKind(), obj.GetName(), err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
