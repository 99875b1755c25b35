package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
)

func readyNode(name string, ready bool) *corev1.Node {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{{Type: corev1.NodeReady, Status: status}},
		},
	}
}

func TestAPIServerReachable(t *testing.T) {
	t.Parallel()
	cs := fake.NewSimpleClientset()
	require.NoError(t, APIServerReachable(cs).Check(context.Background()))
}

func TestNodesReady(t *testing.T) {
	t.Parallel()
	cs := fake.NewSimpleClientset(
		readyNode("k3s-master-0", true),
		readyNode("k3s-worker-0", true),
		readyNode("k3s-worker-1", false),
	)

	require.NoError(t, NodesReady(cs, 2).Check(context.Background()))

	err := NodesReady(cs, 3).Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 nodes ready")
}

func TestDeploymentAvailable(t *testing.T) {
	t.Parallel()
	replicas := int32(2)

	available := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "cert-manager-webhook", Namespace: "cert-manager"},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status: appsv1.DeploymentStatus{
			AvailableReplicas: 2,
			Conditions: []appsv1.DeploymentCondition{
				{Type: appsv1.DeploymentAvailable, Status: corev1.ConditionTrue},
			},
		},
	}
	progressing := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "controller", Namespace: "metallb-system"},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status: appsv1.DeploymentStatus{
			AvailableReplicas: 1,
			Conditions: []appsv1.DeploymentCondition{
				{Type: appsv1.DeploymentAvailable, Status: corev1.ConditionTrue},
			},
		},
	}
	cs := fake.NewSimpleClientset(available, progressing)

	require.NoError(t, DeploymentAvailable(cs, "cert-manager", "cert-manager-webhook").Check(context.Background()))

	err := DeploymentAvailable(cs, "metallb-system", "controller").Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1/2")

	require.Error(t, DeploymentAvailable(cs, "argocd", "argocd-server").Check(context.Background()))
}

func TestEndpointsReady(t *testing.T) {
	t.Parallel()
	ready := &corev1.Endpoints{ //nolint:staticcheck // core/v1 Endpoints are what the probe reads
		ObjectMeta: metav1.ObjectMeta{Name: "cert-manager-webhook", Namespace: "cert-manager"},
		Subsets: []corev1.EndpointSubset{{ //nolint:staticcheck // see above
			Addresses: []corev1.EndpointAddress{{IP: "10.42.0.12"}}, //nolint:staticcheck // see above
		}},
	}
	empty := &corev1.Endpoints{ //nolint:staticcheck // see above
		ObjectMeta: metav1.ObjectMeta{Name: "traefik", Namespace: "traefik"},
	}
	cs := fake.NewSimpleClientset(ready, empty)

	require.NoError(t, EndpointsReady(cs, "cert-manager", "cert-manager-webhook").Check(context.Background()))
	require.Error(t, EndpointsReady(cs, "traefik", "traefik").Check(context.Background()))
	require.Error(t, EndpointsReady(cs, "traefik", "missing").Check(context.Background()))
}

func TestAPIResourceServed(t *testing.T) {
	t.Parallel()
	cs := fake.NewSimpleClientset()
	disc, ok := cs.Discovery().(*fakediscovery.FakeDiscovery)
	require.True(t, ok)
	disc.Resources = []*metav1.APIResourceList{{
		GroupVersion: "metallb.io/v1beta1",
		APIResources: []metav1.APIResource{{Name: "ipaddresspools", Kind: "IPAddressPool"}},
	}}

	require.NoError(t, APIResourceServed(cs, "metallb.io/v1beta1", "IPAddressPool").Check(context.Background()))
	require.Error(t, APIResourceServed(cs, "metallb.io/v1beta1", "L2Advertisement").Check(context.Background()))
	require.Error(t, APIResourceServed(cs, "cert-manager.io/v1", "ClusterIssuer").Check(context.Background()))
}
