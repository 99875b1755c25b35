package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLabelBuilder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cluster string
		want    map[string]string
	}{
		{
			name:    "with cluster",
			cluster: "lab",
			want:    map[string]string{KeyCluster: "lab", KeyManagedBy: ManagedByK3smox},
		},
		{
			name:    "without cluster",
			cluster: "",
			want:    map[string]string{KeyManagedBy: ManagedByK3smox},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewLabelBuilder(tt.cluster).Build())
		})
	}
}

func TestLabelBuilder_Chain(t *testing.T) {
	t.Parallel()

	lb := NewLabelBuilder("lab").
		WithRole("worker").
		WithoutManagedBy().
		Merge(map[string]string{"topology.kubernetes.io/zone": "pve1"})

	assert.Equal(t, []string{
		"k3smox.io/cluster=lab",
		"k3smox.io/role=worker",
		"topology.kubernetes.io/zone=pve1",
	}, lb.Pairs())
}

func TestBuild_ReturnsCopy(t *testing.T) {
	t.Parallel()

	lb := NewLabelBuilder("lab")
	out := lb.Build()
	out["mutated"] = "yes"

	assert.NotContains(t, lb.Build(), "mutated")
}
