package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/k3smox/internal/addons"
)

// Manifests prints the custom resources bootstrap applies after the
// add-on charts.
func Manifests(_ context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	objs := addons.CustomResources(cfg.Addons)
	if len(objs) == 0 {
		_, err := fmt.Fprintln(stdout, "# no add-on custom resources enabled")
		return err
	}

	data, err := addons.ToYAML(objs)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
