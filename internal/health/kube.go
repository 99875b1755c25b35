package health

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// APIServerReachable succeeds once the API server answers a version request.
func APIServerReachable(cs kubernetes.Interface) Probe {
	return ProbeFunc(func(_ context.Context) error {
		if _, err := cs.Discovery().ServerVersion(); err != nil {
			return fmt.Errorf("api server not reachable: %w", err)
		}
		return nil
	})
}

// NodesReady succeeds once at least want nodes report Ready.
func NodesReady(cs kubernetes.Interface, want int) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		nodes, err := cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			return fmt.Errorf("failed to list nodes: %w", err)
		}
		ready := 0
		for i := range nodes.Items {
			if isNodeReady(&nodes.Items[i]) {
				ready++
			}
		}
		if ready < want {
			return fmt.Errorf("%d of %d nodes ready", ready, want)
		}
		return nil
	})
}

// DeploymentAvailable succeeds once the deployment reports the Available
// condition and all desired replicas are available.
func DeploymentAvailable(cs kubernetes.Interface, namespace, name string) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		d, err := cs.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return fmt.Errorf("deployment %s/%s: %w", namespace, name, err)
		}
		if !isDeploymentAvailable(d) {
			return fmt.Errorf("deployment %s/%s has %d/%d available replicas",
				namespace, name, d.Status.AvailableReplicas, desiredReplicas(d))
		}
		return nil
	})
}

// EndpointsReady succeeds once the service has at least one ready address.
func EndpointsReady(cs kubernetes.Interface, namespace, service string) Probe {
	return ProbeFunc(func(ctx context.Context) error {
		endpoints, err := cs.CoreV1().Endpoints(namespace).Get(ctx, service, metav1.GetOptions{}) //nolint:staticcheck // k3s still serves core/v1 Endpoints
		if err != nil {
			return fmt.Errorf("endpoints %s/%s: %w", namespace, service, err)
		}
		for _, subset := range endpoints.Subsets {
			if len(subset.Addresses) > 0 {
				return nil
			}
		}
		return fmt.Errorf("service %s/%s has no ready endpoints", namespace, service)
	})
}

// APIResourceServed succeeds once the API server serves kind in groupVersion,
// which is how CRD installation is observed.
func APIResourceServed(cs kubernetes.Interface, groupVersion, kind string) Probe {
	return ProbeFunc(func(_ context.Context) error {
		list, err := cs.Discovery().ServerResourcesForGroupVersion(groupVersion)
		if err != nil {
			return fmt.Errorf("%s not served: %w", groupVersion, err)
		}
		for _, r := range list.APIResources {
			if r.Kind == kind {
				return nil
			}
		}
		return fmt.Errorf("%s %s not served", groupVersion, kind)
	})
}

func isNodeReady(node *corev1.Node) bool {
	for _, c := range node.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}

func desiredReplicas(d *appsv1.Deployment) int32 {
	if d.Spec.Replicas == nil {
		return 1
	}
	return *d.Spec.Replicas
}

func isDeploymentAvailable(d *appsv1.Deployment) bool {
	if d.Status.AvailableReplicas < desiredReplicas(d) {
		return false
	}
	for _, c := range d.Status.Conditions {
		if c.Type == appsv1.DeploymentAvailable {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}
