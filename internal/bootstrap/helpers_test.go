package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	testutil "github.com/imamik/k3smox/internal/testing"
	"github.com/imamik/k3smox/internal/topology"
)

// labPlan mirrors the add-on ordering used for real clusters.
var labPlan = AddonPlan{
	{ID: "metallb-chart"},
	{ID: "metallb-pools", DependsOn: []string{"metallb-chart"}},
	{ID: "cert-manager-chart"},
	{ID: "cert-manager-webhook", DependsOn: []string{"cert-manager-chart"}},
	{ID: "cert-manager-issuer", DependsOn: []string{"cert-manager-chart", "cert-manager-webhook"}},
	{ID: "ingress", DependsOn: []string{"metallb-pools"}},
	{ID: "gitops-bootstrap", DependsOn: []string{"ingress", "cert-manager-issuer"}},
}

func labTopology(t testing.TB, masters, workers int) *topology.ClusterTopology {
	t.Helper()
	cfg := testutil.NewConfigBuilder().WithMasters(masters, 120).WithWorkers(workers, 130).Build()
	topo, err := topology.Derive(cfg)
	require.NoError(t, err)
	return topo
}

func labGraph(t testing.TB) *Graph {
	t.Helper()
	g, err := BuildGraph(labTopology(t, 1, 2), labPlan)
	require.NoError(t, err)
	return g
}

func okTasks(g *Graph) map[string]Task {
	tasks := make(map[string]Task, g.Len())
	for _, s := range g.Stages() {
		tasks[s.ID] = Task{Run: func(context.Context) error { return nil }}
	}
	return tasks
}

func ids(stages []Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.ID
	}
	return out
}
