package agent

import (
	"github.com/kadirpekel/conductor/pkg/config"
)

// DependencyGraph is the adjacency structure induced by a workflow's
// depends_on relation. It is derived fresh per run and never mutates the
// registry's own catalog.
type DependencyGraph struct {
	nodes      []string            // step ids in declaration order
	deps       map[string][]string // step id -> its dependencies
	dependents map[string][]string // step id -> steps that depend on it
}

// Nodes returns the step ids in declaration order
func (g *DependencyGraph) Nodes() []string {
	nodes := make([]string, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Dependencies returns the declared dependencies of a step
func (g *DependencyGraph) Dependencies(stepID string) []string {
	return g.deps[stepID]
}

// Dependents returns the steps that directly depend on a step
func (g *DependencyGraph) Dependents(stepID string) []string {
	return g.dependents[stepID]
}

// Reachable returns every step transitively reachable from the given step
// through the dependents relation, in declaration order.
func (g *DependencyGraph) Reachable(stepID string) []string {
	visited := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		for _, dep := range g.dependents[id] {
			if !visited[dep] {
				visited[dep] = true
				walk(dep)
			}
		}
	}
	walk(stepID)

	reachable := make([]string, 0, len(visited))
	for _, id := range g.nodes {
		if visited[id] {
			reachable = append(reachable, id)
		}
	}
	return reachable
}

// Edges returns the total number of dependency edges
func (g *DependencyGraph) Edges() int {
	total := 0
	for _, deps := range g.deps {
		total += len(deps)
	}
	return total
}

// ExecutionPlan is the immutable result of resolving a workflow
// definition against the registry: a valid topological order, the
// dependency graph it was computed from, and the descriptor resolved for
// each step.
type ExecutionPlan struct {
	Order []string
	Graph *DependencyGraph

	descriptors map[string]Descriptor
}

// Descriptor returns the resolved descriptor for a step
func (p *ExecutionPlan) Descriptor(stepID string) Descriptor {
	return p.descriptors[stepID]
}

// PlanStats holds read-only plan counts for observability
type PlanStats struct {
	Steps           int `json:"steps"`
	DependencyEdges int `json:"dependency_edges"`
}

// Stats returns read-only counts for the resolved plan
func (p *ExecutionPlan) Stats() PlanStats {
	return PlanStats{
		Steps:           len(p.Order),
		DependencyEdges: p.Graph.Edges(),
	}
}

// BuildExecutionOrder validates a workflow definition against the catalog
// and resolves it into an execution plan. It fails with
// UnknownAgentError for unresolvable agent references and
// CircularDependencyError the moment a back-edge is found; a rejected
// definition leaves the registry and the caller untouched.
//
// The returned order is stable: ties are broken by declaration order, so
// the result is deterministic for a fixed definition.
func (r *Registry) BuildExecutionOrder(def *config.WorkflowDefinition) (*ExecutionPlan, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	descriptors := make(map[string]Descriptor, len(def.Steps))
	for _, step := range def.Steps {
		d, err := r.Resolve(step.Agent)
		if err != nil {
			return nil, err
		}
		descriptors[step.ID] = d
	}

	graph := buildGraph(def)

	if cycle := graph.findCycle(); cycle != nil {
		return nil, &CircularDependencyError{Cycle: cycle}
	}

	return &ExecutionPlan{
		Order:       graph.topologicalOrder(),
		Graph:       graph,
		descriptors: descriptors,
	}, nil
}

func buildGraph(def *config.WorkflowDefinition) *DependencyGraph {
	g := &DependencyGraph{
		nodes:      make([]string, 0, len(def.Steps)),
		deps:       make(map[string][]string, len(def.Steps)),
		dependents: make(map[string][]string, len(def.Steps)),
	}

	for _, step := range def.Steps {
		g.nodes = append(g.nodes, step.ID)
		g.deps[step.ID] = append([]string(nil), step.DependsOn...)
	}
	for _, step := range def.Steps {
		for _, dep := range step.DependsOn {
			g.dependents[dep] = append(g.dependents[dep], step.ID)
		}
	}
	return g
}

// findCycle runs a depth-first traversal over the depends_on relation and
// returns the offending cycle, or nil if the graph is acyclic.
func (g *DependencyGraph) findCycle() []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)

	color := make(map[string]int, len(g.nodes))
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		path = append(path, id)

		for _, dep := range g.deps[id] {
			switch color[dep] {
			case gray:
				// Back-edge: slice the current path from the first
				// occurrence of dep and close the loop.
				for i, node := range path {
					if node == dep {
						cycle = append(append([]string(nil), path[i:]...), dep)
						return true
					}
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	for _, id := range g.nodes {
		if color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

// topologicalOrder computes a dependency-respecting order. It repeatedly
// scans the declaration order for steps whose dependencies have all been
// emitted, which keeps the result stable. Callers must have rejected
// cycles first.
func (g *DependencyGraph) topologicalOrder() []string {
	emitted := make(map[string]bool, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	for len(order) < len(g.nodes) {
		for _, id := range g.nodes {
			if emitted[id] {
				continue
			}
			ready := true
			for _, dep := range g.deps[id] {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				emitted[id] = true
				order = append(order, id)
			}
		}
	}
	return order
}
