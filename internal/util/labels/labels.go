package labels

import (
	"maps"
	"slices"
)

// Standard label keys.
const (
	// KeyCluster identifies which cluster a node belongs to.
	KeyCluster = "k3smox.io/cluster"

	// KeyRole identifies the role of a node (master, worker).
	KeyRole = "k3smox.io/role"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "app.kubernetes.io/managed-by"
)

// ManagedByK3smox is the managed-by value of everything k3smox creates.
const ManagedByK3smox = "k3smox"

// LabelBuilder provides a fluent interface for building label sets.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with managed-by set and, when cluster
// is not empty, the cluster label.
func NewLabelBuilder(cluster string) *LabelBuilder {
	lb := &LabelBuilder{labels: map[string]string{KeyManagedBy: ManagedByK3smox}}
	if cluster != "" {
		lb.labels[KeyCluster] = cluster
	}
	return lb
}

// WithRole adds a role label.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithoutManagedBy drops the managed-by label, e.g. for node labels k3s
// owns.
func (lb *LabelBuilder) WithoutManagedBy() *LabelBuilder {
	delete(lb.labels, KeyManagedBy)
	return lb
}

// Merge adds all labels from the provided map.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	maps.Copy(lb.labels, extra)
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	return maps.Clone(lb.labels)
}

// Pairs returns the labels as sorted "key=value" strings.
func (lb *LabelBuilder) Pairs() []string {
	pairs := make([]string, 0, len(lb.labels))
	for _, k := range slices.Sorted(maps.Keys(lb.labels)) {
		pairs = append(pairs, k+"="+lb.labels[k])
	}
	return pairs
}
