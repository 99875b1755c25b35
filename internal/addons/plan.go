package addons

import (
	"slices"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
)

// Add-on stage IDs.
const (
	StageMetalLBChart       = "metallb-chart"
	StageMetalLBPools       = "metallb-pools"
	StageCertManagerChart   = "cert-manager-chart"
	StageCertManagerWebhook = "cert-manager-webhook"
	StageCertManagerIssuer  = "cert-manager-issuer"
	StageIngress            = "ingress"
	StageGitOps             = "gitops-bootstrap"
)

type planEntry struct {
	id        string
	dependsOn []string
	enabled   func(config.AddonsConfig) bool
}

// catalog lists every add-on stage in declaration order.
var catalog = []planEntry{
	{id: StageMetalLBChart, enabled: metalLBEnabled},
	{id: StageMetalLBPools, dependsOn: []string{StageMetalLBChart}, enabled: metalLBEnabled},
	{id: StageCertManagerChart, enabled: certManagerEnabled},
	{id: StageCertManagerWebhook, dependsOn: []string{StageCertManagerChart}, enabled: certManagerEnabled},
	{id: StageCertManagerIssuer, dependsOn: []string{StageCertManagerChart, StageCertManagerWebhook}, enabled: certManagerEnabled},
	// Traefik's LoadBalancer service needs an address from a MetalLB pool.
	{id: StageIngress, dependsOn: []string{StageMetalLBPools}, enabled: func(a config.AddonsConfig) bool { return a.Traefik.Enabled }},
	{id: StageGitOps, dependsOn: []string{StageIngress, StageCertManagerIssuer}, enabled: func(a config.AddonsConfig) bool { return a.ArgoCD.Enabled }},
}

func metalLBEnabled(a config.AddonsConfig) bool     { return a.MetalLB.Enabled }
func certManagerEnabled(a config.AddonsConfig) bool { return a.CertManager.Enabled }

// Plan returns the stages of every enabled add-on. Disabled add-ons are
// left out, and so are dependencies on them: a stage whose dependencies
// are all disabled runs right after the first master is installed.
func Plan(cfg config.AddonsConfig) bootstrap.AddonPlan {
	enabled := make(map[string]bool, len(catalog))
	for _, e := range catalog {
		enabled[e.id] = e.enabled(cfg)
	}

	var plan bootstrap.AddonPlan
	for _, e := range catalog {
		if !enabled[e.id] {
			continue
		}
		deps := slices.DeleteFunc(slices.Clone(e.dependsOn), func(d string) bool { return !enabled[d] })
		if len(deps) == 0 {
			deps = nil
		}
		plan = append(plan, bootstrap.AddonStage{ID: e.id, DependsOn: deps})
	}
	return plan
}
