package bootstrap

// TopologicalOrder returns the stages of g so that every stage follows all
// of its dependencies. Among stages that are ready at the same time the one
// declared first comes first, so the order is deterministic.
func TopologicalOrder(g *Graph) ([]Stage, error) {
	n := len(g.stages)
	indegree := make([]int, n)
	for i, s := range g.stages {
		indegree[i] = len(s.DependsOn)
	}

	done := make([]bool, n)
	order := make([]Stage, 0, n)
	for len(order) < n {
		next := -1
		for i := range g.stages {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &CycleError{Cycle: g.findCycle(done)}
		}

		done[next] = true
		order = append(order, g.stages[next].clone())
		for _, d := range g.dependents[g.stages[next].ID] {
			indegree[g.index[d]]--
		}
	}
	return order, nil
}

// findCycle walks unresolved dependencies from the first unresolved stage.
// Every unresolved stage has an unresolved dependency, so the walk must
// revisit a stage.
func (g *Graph) findCycle(done []bool) []string {
	start := -1
	for i := range g.stages {
		if !done[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	pos := make(map[int]int)
	var path []int
	cur := start
	for {
		if p, ok := pos[cur]; ok {
			cycle := make([]string, 0, len(path)-p+1)
			for _, i := range path[p:] {
				cycle = append(cycle, g.stages[i].ID)
			}
			return append(cycle, g.stages[cur].ID)
		}
		pos[cur] = len(path)
		path = append(path, cur)

		for _, dep := range g.stages[cur].DependsOn {
			if j := g.index[dep]; !done[j] {
				cur = j
				break
			}
		}
	}
}

// Levels groups the stages of g by dependency depth. Stages in one level
// have no edges between them and may run concurrently once the previous
// levels are complete.
func Levels(g *Graph) ([][]Stage, error) {
	order, err := TopologicalOrder(g)
	if err != nil {
		return nil, err
	}

	depth := make(map[string]int, len(order))
	var levels [][]Stage
	for _, s := range order {
		d := 0
		for _, dep := range s.DependsOn {
			d = max(d, depth[dep]+1)
		}
		depth[s.ID] = d
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], s)
	}
	return levels, nil
}
