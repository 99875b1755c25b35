package addons

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/imamik/k3smox/internal/addons/helm"
	"github.com/imamik/k3smox/internal/addons/k8sclient"
	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/health"
	"github.com/imamik/k3smox/internal/util/labels"
)

// FieldManager identifies k3smox in server-side apply.
const FieldManager = labels.ManagedByK3smox

// ClientFactory returns a client for the cluster being bootstrapped.
// It is called once per stage run and probe check, so implementations
// should cache.
type ClientFactory func(ctx context.Context) (k8sclient.Client, error)

// ChartRenderer renders a chart to manifests.
type ChartRenderer interface {
	Render(ctx context.Context, spec helm.ChartSpec, releaseName, namespace string, values helm.Values) ([]byte, error)
}

// step is the work and health gate of one add-on stage.
type step struct {
	install func(ctx context.Context, c k8sclient.Client) error
	probe   func(c k8sclient.Client) health.Probe
}

// Installer turns add-on stages into bootstrap tasks.
type Installer struct {
	cfg      *config.EnvironmentConfig
	renderer ChartRenderer
	clients  ClientFactory
	steps    map[string]step
}

// NewInstaller returns an installer for the add-ons enabled in cfg.
func NewInstaller(cfg *config.EnvironmentConfig, renderer ChartRenderer, clients ClientFactory) *Installer {
	i := &Installer{cfg: cfg, renderer: renderer, clients: clients}
	i.steps = map[string]step{
		StageMetalLBChart: {
			install: i.chart("metallb", "metallb", metalLBNamespace, cfg.Addons.MetalLB.Helm, buildMetalLBValues, privilegedNamespace),
			probe: func(c k8sclient.Client) health.Probe {
				cs := c.Clientset()
				return health.All(
					health.DeploymentAvailable(cs, metalLBNamespace, "metallb-controller"),
					health.EndpointsReady(cs, metalLBNamespace, "metallb-webhook-service"),
					health.APIResourceServed(cs, metalLBGroupVersion, "IPAddressPool"),
				)
			},
		},
		StageMetalLBPools: {
			install: i.objects(func() []*unstructured.Unstructured { return MetalLBPools(cfg.Addons.MetalLB) }),
		},
		StageCertManagerChart: {
			install: i.chart("cert-manager", "cert-manager", certManagerNamespace, cfg.Addons.CertManager.Helm, buildCertManagerValues, nil),
			probe: func(c k8sclient.Client) health.Probe {
				return health.DeploymentAvailable(c.Clientset(), certManagerNamespace, "cert-manager")
			},
		},
		StageCertManagerWebhook: {
			// Nothing to install: the stage gates the issuer on a serving webhook.
			probe: func(c k8sclient.Client) health.Probe {
				cs := c.Clientset()
				return health.All(
					health.DeploymentAvailable(cs, certManagerNamespace, "cert-manager-webhook"),
					health.EndpointsReady(cs, certManagerNamespace, "cert-manager-webhook"),
					health.APIResourceServed(cs, certManagerGroupVersion, "ClusterIssuer"),
				)
			},
		},
		StageCertManagerIssuer: {
			install: i.objects(func() []*unstructured.Unstructured {
				return []*unstructured.Unstructured{ClusterIssuer(cfg.Addons.CertManager)}
			}),
		},
		StageIngress: {
			install: i.chart("traefik", "traefik", traefikNamespace, cfg.Addons.Traefik.Helm, buildTraefikValues, nil),
			probe: func(c k8sclient.Client) health.Probe {
				return health.DeploymentAvailable(c.Clientset(), traefikNamespace, "traefik")
			},
		},
		StageGitOps: {
			install: i.gitops,
			probe: func(c k8sclient.Client) health.Probe {
				return health.DeploymentAvailable(c.Clientset(), argoCDNamespace, "argocd-server")
			},
		},
	}
	return i
}

// Task returns the bootstrap task of add-on stage id.
func (i *Installer) Task(id string) (bootstrap.Task, error) {
	s, ok := i.steps[id]
	if !ok {
		return bootstrap.Task{}, fmt.Errorf("add-on stage %s: %w", id, bootstrap.ErrUnknownStage)
	}

	var task bootstrap.Task
	if s.install != nil {
		task.Run = func(ctx context.Context) error {
			c, err := i.clients(ctx)
			if err != nil {
				return fmt.Errorf("kubernetes client: %w", err)
			}
			return s.install(ctx, c)
		}
	}
	if s.probe != nil {
		task.Probe = health.ProbeFunc(func(ctx context.Context) error {
			c, err := i.clients(ctx)
			if err != nil {
				return fmt.Errorf("kubernetes client: %w", err)
			}
			return s.probe(c).Check(ctx)
		})
	}
	return task, nil
}

// Tasks returns the tasks of every stage in plan.
func (i *Installer) Tasks(plan bootstrap.AddonPlan) (map[string]bootstrap.Task, error) {
	tasks := make(map[string]bootstrap.Task, len(plan))
	for _, s := range plan {
		task, err := i.Task(s.ID)
		if err != nil {
			return nil, err
		}
		tasks[s.ID] = task
	}
	return tasks, nil
}

var privilegedNamespace = map[string]string{
	"pod-security.kubernetes.io/enforce": "privileged",
	"pod-security.kubernetes.io/audit":   "privileged",
	"pod-security.kubernetes.io/warn":    "privileged",
}

// chart returns an install step that creates the namespace, renders the
// chart and applies the result. Discovery is refreshed afterwards so
// later stages can apply the chart's custom resources.
func (i *Installer) chart(
	addon, release, namespace string,
	helmCfg config.HelmChartConfig,
	buildValues func(*config.EnvironmentConfig) helm.Values,
	namespaceLabels map[string]string,
) func(context.Context, k8sclient.Client) error {
	return func(ctx context.Context, c k8sclient.Client) error {
		logger := logr.FromContextOrDiscard(ctx)

		nsLabels := labels.NewLabelBuilder("").Merge(namespaceLabels).Build()
		if err := c.ApplyManifests(ctx, []byte(helm.NamespaceManifest(namespace, nsLabels)), FieldManager); err != nil {
			return fmt.Errorf("failed to create %s namespace: %w", namespace, err)
		}

		spec := helm.GetChartSpec(addon, helmCfg)
		logger.Info("rendering chart", "chart", spec.Name, "version", spec.Version, "namespace", namespace)

		manifests, err := i.renderer.Render(ctx, spec, release, namespace, buildValues(i.cfg))
		if err != nil {
			return fmt.Errorf("failed to render %s chart: %w", addon, err)
		}

		if err := c.ApplyManifests(ctx, manifests, FieldManager); err != nil {
			return fmt.Errorf("failed to apply %s manifests: %w", addon, err)
		}

		if err := c.RefreshDiscovery(ctx); err != nil {
			return fmt.Errorf("failed to refresh discovery after %s: %w", addon, err)
		}
		return nil
	}
}

// objects returns an install step applying custom resources. Every kind
// must already be served; the CRDs come from an earlier stage.
func (i *Installer) objects(build func() []*unstructured.Unstructured) func(context.Context, k8sclient.Client) error {
	return func(ctx context.Context, c k8sclient.Client) error {
		objs := build()
		if err := requireServed(ctx, c, objs); err != nil {
			return err
		}
		logr.FromContextOrDiscard(ctx).Info("applying custom resources", "count", len(objs))
		return c.ApplyObjects(ctx, objs, FieldManager)
	}
}

// requireServed checks each distinct kind of objs against discovery.
func requireServed(ctx context.Context, c k8sclient.Client, objs []*unstructured.Unstructured) error {
	seen := make(map[schema.GroupVersionKind]bool, len(objs))
	for _, obj := range objs {
		gvk := obj.GroupVersionKind()
		if seen[gvk] {
			continue
		}
		seen[gvk] = true

		served, err := c.HasAPIResource(ctx, gvk.GroupVersion().String(), gvk.Kind)
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", gvk.Kind, err)
		}
		if !served {
			return fmt.Errorf("%s %s is not served by the cluster", gvk.GroupVersion(), gvk.Kind)
		}
	}
	return nil
}

func (i *Installer) gitops(ctx context.Context, c k8sclient.Client) error {
	install := i.chart("argo-cd", "argocd", argoCDNamespace, i.cfg.Addons.ArgoCD.Helm, buildArgoCDValues, nil)
	if err := install(ctx, c); err != nil {
		return err
	}
	if i.cfg.Addons.ArgoCD.RepoURL == "" {
		return nil
	}
	return c.ApplyObjects(ctx, []*unstructured.Unstructured{RootApplication(i.cfg.Addons.ArgoCD)}, FieldManager)
}
