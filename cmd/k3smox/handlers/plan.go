package handlers

import (
	"context"

	"github.com/imamik/k3smox/internal/orchestration"
	"github.com/imamik/k3smox/internal/ui"
)

// Plan prints the topology derived from the configuration.
func Plan(_ context.Context, configPath, output string) error {
	if err := checkOutput(output); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	plan, err := orchestration.BuildPlan(cfg)
	if err != nil {
		return err
	}

	if output == OutputJSON {
		return writeJSON(stdout, plan.Topology)
	}
	return ui.Topology(stdout, plan.Topology, uiOptions())
}
