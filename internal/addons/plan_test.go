package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
	tu "github.com/imamik/k3smox/internal/testing"
	"github.com/imamik/k3smox/internal/topology"
)

func TestPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		addons config.AddonsConfig
		want   bootstrap.AddonPlan
	}{
		{
			name:   "nothing enabled",
			addons: config.AddonsConfig{},
			want:   nil,
		},
		{
			name:   "all enabled",
			addons: tu.NewConfigBuilder().WithAllAddons().Build().Addons,
			want: bootstrap.AddonPlan{
				{ID: StageMetalLBChart},
				{ID: StageMetalLBPools, DependsOn: []string{StageMetalLBChart}},
				{ID: StageCertManagerChart},
				{ID: StageCertManagerWebhook, DependsOn: []string{StageCertManagerChart}},
				{ID: StageCertManagerIssuer, DependsOn: []string{StageCertManagerChart, StageCertManagerWebhook}},
				{ID: StageIngress, DependsOn: []string{StageMetalLBPools}},
				{ID: StageGitOps, DependsOn: []string{StageIngress, StageCertManagerIssuer}},
			},
		},
		{
			name:   "argocd without cert-manager",
			addons: tu.NewConfigBuilder().WithMetalLB("lab", "10.10.0.240/28").WithTraefik().WithArgoCD("", "").Build().Addons,
			want: bootstrap.AddonPlan{
				{ID: StageMetalLBChart},
				{ID: StageMetalLBPools, DependsOn: []string{StageMetalLBChart}},
				{ID: StageIngress, DependsOn: []string{StageMetalLBPools}},
				{ID: StageGitOps, DependsOn: []string{StageIngress}},
			},
		},
		{
			name:   "traefik alone roots on the master",
			addons: tu.NewConfigBuilder().WithTraefik().Build().Addons,
			want: bootstrap.AddonPlan{
				{ID: StageIngress},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Plan(tt.addons))
		})
	}
}

func TestPlan_BuildsValidGraph(t *testing.T) {
	t.Parallel()

	cfg := tu.NewConfigBuilder().WithAllAddons().Build()
	topo, err := topology.Derive(cfg)
	require.NoError(t, err)

	g, err := bootstrap.BuildGraph(topo, Plan(cfg.Addons))
	require.NoError(t, err)

	gitops, ok := g.Stage(StageGitOps)
	require.True(t, ok)
	assert.Equal(t, bootstrap.KindAddonInstall, gitops.Kind)
	_, ok = g.Stage(StageMetalLBChart)
	assert.True(t, ok)

	issuer, ok := g.Stage(StageCertManagerIssuer)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{StageCertManagerChart, StageCertManagerWebhook}, issuer.DependsOn)
}
