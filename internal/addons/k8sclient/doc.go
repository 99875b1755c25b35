// Package k8sclient provides the Kubernetes client used for add-on
// installation: server-side apply of multi-document YAML and
// unstructured objects, and API discovery for newly installed CRDs,
// built directly from kubeconfig bytes.
package k8sclient
