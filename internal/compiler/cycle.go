package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/forgeplan/internal/ir"
)

// CycleWarning represents mutually recursive items in a catalog.
//
// Cycles are warnings, not errors: the solver cuts them at query time, and a
// cycle with an escape route (a second recipe, or the item being available)
// is still solvable.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["ID:a", "ID:b", "ID:a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles performs static cycle analysis on catalog recipes.
//
// The algorithm:
//  1. Build an output key → input keys graph from every recipe
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle warning
//
// Nodes are matcher keys, so a category-shaped input only links to recipes
// whose output carries the same key. Nodes and edges are visited in sorted
// order; the warnings are deterministic.
//
// An acyclic catalog returns an empty warning list.
func AnalyzeCycles(spec *ir.CatalogSpec) []CycleWarning {
	warnings := []CycleWarning{}
	if len(spec.Recipes) == 0 {
		return warnings
	}

	graph := buildDependencyGraph(spec.Recipes)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// dependencyGraph maps an output key to the input keys needed to produce it.
type dependencyGraph map[string][]string

func buildDependencyGraph(recipes []ir.Recipe) dependencyGraph {
	graph := make(dependencyGraph)
	for _, r := range recipes {
		for _, out := range r.Outputs {
			if out.IsZero() {
				continue
			}
			from := out.Key()
			if graph[from] == nil {
				graph[from] = []string{}
			}
			for _, in := range r.Inputs {
				if in.IsZero() {
					continue
				}
				to := in.Key()
				graph[from] = append(graph[from], to)
				if graph[to] == nil {
					graph[to] = []string{}
				}
			}
		}
	}
	for node, edges := range graph {
		slices.Sort(edges)
		graph[node] = slices.Compact(edges)
	}
	return graph
}

// nodes returns the graph's nodes in sorted order.
func (g dependencyGraph) nodes() []string {
	nodes := make([]string, 0, len(g))
	for n := range g {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, each sorted. Single-node SCCs without self-loops
// are NOT cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.nodes() {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
// For self-loops, the path is [key, key].
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		key := scc[0]
		return CycleWarning{
			Path:    []string{key, key},
			Message: fmt.Sprintf("Self-dependent item detected: %s → %s", key, key),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Mutually recursive items detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks from the first SCC member along edges inside
// the SCC until it returns to the start or runs out of unvisited members.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
