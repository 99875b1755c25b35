// Package main is the entry point for the k3smox CLI.
//
// k3smox derives the node layout of a K3s cluster on Proxmox from a single
// YAML file and bootstraps it: VMs, masters, workers and the add-on stack,
// each stage gated on a health probe.
//
// Commands: plan, graph, manifests, bootstrap, version.
//
// For detailed usage information, run:
//
//	k3smox --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/k3smox/cmd/k3smox/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
