package bootstrap

import (
	"errors"
	"fmt"

	"github.com/imamik/k3smox/internal/topology"
	"github.com/imamik/k3smox/internal/util/naming"
)

// ErrUnknownStage is returned for a dependency on a stage that does not exist.
var ErrUnknownStage = errors.New("unknown stage")

// AddonStage declares one add-on install stage and its predecessors.
// An empty DependsOn roots the stage on the first master install.
type AddonStage struct {
	ID        string
	DependsOn []string
}

// AddonPlan is the ordered list of add-on stages to install.
type AddonPlan []AddonStage

// Graph is an immutable set of stages with their dependency edges.
// Stages keep their declaration order, which breaks ordering ties.
type Graph struct {
	stages     []Stage
	index      map[string]int
	dependents map[string][]string
}

// NewGraph validates stages and builds a graph from them. Stage IDs must be
// unique and every dependency must name a stage in the set. Cycles are not
// rejected here; TopologicalOrder reports them.
func NewGraph(stages []Stage) (*Graph, error) {
	g := &Graph{
		stages:     make([]Stage, 0, len(stages)),
		index:      make(map[string]int, len(stages)),
		dependents: make(map[string][]string, len(stages)),
	}

	for _, s := range stages {
		if s.ID == "" {
			return nil, fmt.Errorf("stage of kind %s has no id", s.Kind)
		}
		if _, dup := g.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate stage %s", s.ID)
		}
		g.index[s.ID] = len(g.stages)
		g.stages = append(g.stages, s.clone())
	}

	for i := range g.stages {
		s := &g.stages[i]
		seen := make(map[string]bool, len(s.DependsOn))
		deps := s.DependsOn[:0]
		for _, dep := range s.DependsOn {
			if _, ok := g.index[dep]; !ok {
				return nil, fmt.Errorf("stage %s depends on %s: %w", s.ID, dep, ErrUnknownStage)
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
			g.dependents[dep] = append(g.dependents[dep], s.ID)
		}
		s.DependsOn = deps
	}

	return g, nil
}

// MasterInstallID returns the stage ID installing master i.
func MasterInstallID(i int) string {
	return naming.Stage(string(KindMasterInstall), i)
}

// WorkerInstallID returns the stage ID installing worker i.
func WorkerInstallID(i int) string {
	return naming.Stage(string(KindWorkerInstall), i)
}

// BuildGraph constructs the bootstrap graph for topo and plan:
// cluster-provision has no dependencies; master-install-0 follows it and
// further masters also wait for the first; credential-fetch follows the
// first master; every worker install follows credential-fetch; add-on stages
// use their declared predecessors. The result is checked for cycles.
func BuildGraph(topo *topology.ClusterTopology, plan AddonPlan) (*Graph, error) {
	if len(topo.Masters) == 0 {
		return nil, errors.New("topology has no masters")
	}

	first := MasterInstallID(0)
	stages := []Stage{{ID: StageClusterProvision, Kind: KindClusterProvision}}

	for i, m := range topo.Masters {
		deps := []string{StageClusterProvision}
		if i > 0 {
			deps = append(deps, first)
		}
		stages = append(stages, Stage{ID: MasterInstallID(i), Kind: KindMasterInstall, DependsOn: deps, Node: m.Name})
	}

	stages = append(stages, Stage{
		ID:        StageCredentialFetch,
		Kind:      KindCredentialFetch,
		DependsOn: []string{first},
		Node:      topo.Masters[0].Name,
	})

	for i, w := range topo.Workers {
		stages = append(stages, Stage{
			ID:        WorkerInstallID(i),
			Kind:      KindWorkerInstall,
			DependsOn: []string{StageCredentialFetch},
			Node:      w.Name,
		})
	}

	for _, a := range plan {
		deps := a.DependsOn
		if len(deps) == 0 {
			deps = []string{first}
		}
		stages = append(stages, Stage{ID: a.ID, Kind: KindAddonInstall, DependsOn: deps})
	}

	g, err := NewGraph(stages)
	if err != nil {
		return nil, err
	}
	if _, err := TopologicalOrder(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Stages returns a copy of the stages in declaration order.
func (g *Graph) Stages() []Stage {
	out := make([]Stage, len(g.stages))
	for i, s := range g.stages {
		out[i] = s.clone()
	}
	return out
}

// Stage returns the stage with id.
func (g *Graph) Stage(id string) (Stage, bool) {
	i, ok := g.index[id]
	if !ok {
		return Stage{}, false
	}
	return g.stages[i].clone(), true
}

// Len returns the number of stages.
func (g *Graph) Len() int {
	return len(g.stages)
}

// TransitiveDependents returns every stage reachable from id through
// dependency edges, nearest first.
func (g *Graph) TransitiveDependents(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range g.dependents[cur] {
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
			queue = append(queue, d)
		}
	}
	return out
}

func (s Stage) clone() Stage {
	s.DependsOn = append([]string(nil), s.DependsOn...)
	return s
}
