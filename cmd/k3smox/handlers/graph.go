package handlers

import (
	"context"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/orchestration"
	"github.com/imamik/k3smox/internal/ui"
)

// graphJSON is the machine readable form of the stage graph.
type graphJSON struct {
	Stages []bootstrap.Stage `json:"stages"`
	Waves  [][]string        `json:"waves"`
}

// Graph prints the bootstrap stages in execution order.
func Graph(_ context.Context, configPath, output string) error {
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

	levels, err := bootstrap.Levels(plan.Graph)
	if err != nil {
		return err
	}

	if output == OutputText {
		return ui.Levels(stdout, levels, uiOptions())
	}

	order, err := bootstrap.TopologicalOrder(plan.Graph)
	if err != nil {
		return err
	}
	out := graphJSON{Stages: order, Waves: make([][]string, 0, len(levels))}
	for _, level := range levels {
		ids := make([]string, 0, len(level))
		for _, s := range level {
			ids = append(ids, s.ID)
		}
		out.Waves = append(out.Waves, ids)
	}
	return writeJSON(stdout, out)
}
