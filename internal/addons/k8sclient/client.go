package k8sclient

import (
	"context"
	"fmt"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
)

// Client provides Kubernetes operations for add-on installation.
type Client interface {
	// ApplyManifests applies multi-document YAML using Server-Side Apply.
	// The fieldManager identifies the actor applying the configuration.
	ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error

	// ApplyObjects applies already built objects using Server-Side Apply.
	ApplyObjects(ctx context.Context, objs []*unstructured.Unstructured, fieldManager string) error

	// RefreshDiscovery refreshes the API discovery to pick up newly installed CRDs.
	// This should be called after applying a chart that includes CRDs.
	RefreshDiscovery(ctx context.Context) error

	// HasAPIResource reports whether the API server serves kind in groupVersion,
	// e.g. ("metallb.io/v1beta1", "IPAddressPool").
	HasAPIResource(ctx context.Context, groupVersion, kind string) (bool, error)

	// Clientset returns the typed clientset, used by health probes.
	Clientset() kubernetes.Interface
}

// client implements the Client interface using k8s.io/client-go.
type client struct {
	clientset     kubernetes.Interface
	dynamicClient dynamic.Interface
	discovery     discovery.DiscoveryInterface

	mu     sync.RWMutex
	mapper meta.RESTMapper
}

// NewFromKubeconfig creates a Client from kubeconfig bytes.
// This avoids the need to write kubeconfig to a temporary file.
func NewFromKubeconfig(kubeconfig []byte) (Client, error) {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST config from kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	c := NewFromClients(clientset, dynamicClient, nil)
	if err := c.RefreshDiscovery(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromClients creates a Client from pre-configured clients. A nil
// mapper stays unset until RefreshDiscovery.
func NewFromClients(
	clientset kubernetes.Interface,
	dynamicClient dynamic.Interface,
	mapper meta.RESTMapper,
) Client {
	return &client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		discovery:     clientset.Discovery(),
		mapper:        mapper,
	}
}

func (c *client) Clientset() kubernetes.Interface {
	return c.clientset
}

// RefreshDiscovery rebuilds the REST mapper from the API server's discovery data.
func (c *client) RefreshDiscovery(_ context.Context) error {
	groupResources, err := restmapper.GetAPIGroupResources(c.discovery)
	if err != nil && !discovery.IsGroupDiscoveryFailedError(err) {
		return fmt.Errorf("failed to get API group resources: %w", err)
	}

	c.mu.Lock()
	c.mapper = restmapper.NewDiscoveryRESTMapper(groupResources)
	c.mu.Unlock()
	return nil
}

// HasAPIResource checks discovery for kind in groupVersion.
func (c *client) HasAPIResource(_ context.Context, groupVersion, kind string) (bool, error) {
	list, err := c.discovery.ServerResourcesForGroupVersion(groupVersion)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to discover %s: %w", groupVersion, err)
	}

	for _, r := range list.APIResources {
		if r.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (c *client) restMapper() meta.RESTMapper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mapper
}
