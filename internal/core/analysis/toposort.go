package analysis

import (
	"sort"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// TopologicalSort orders the graph's nodes using Kahn's algorithm. When
// the graph contains a cycle the produced order would be shorter than
// the node set, which is a hard structural error: callers must not
// attempt a partial ordering.
func TopologicalSort(g *graph.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		inDegree[id] = 0
	}
	for _, e := range g.Edges {
		inDegree[e.Target]++
	}

	var queue []string
	for _, id := range sortedNodeIDs(g) {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		targets := sortedTargets(g, current)
		for _, target := range targets {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, graph.ErrCyclicGraph
	}
	return order, nil
}

// CriticalPath returns the longest discovered path by node count from
// startID, exploring all outgoing edges depth-first. Ties are broken by
// discovery order (first-longest wins). Edge weights are deliberately
// not consulted; this is a node-count approximation, not CPM.
func CriticalPath(g *graph.Graph, startID string) []string {
	if _, ok := g.Nodes[startID]; !ok {
		return nil
	}

	var best []string
	var walk func(node string, path []string, visited map[string]bool)
	walk = func(node string, path []string, visited map[string]bool) {
		if len(path) > len(best) {
			best = append([]string(nil), path...)
		}
		for _, target := range sortedTargets(g, node) {
			if visited[target] {
				continue
			}
			visited[target] = true
			walk(target, append(path, target), visited)
			delete(visited, target)
		}
	}
	walk(startID, []string{startID}, map[string]bool{startID: true})
	return best
}

// ConditionalPaths returns, per conditional edge, the pair of node ids it
// gates. Planners use this to know which branches depend on run-time
// evaluation.
func ConditionalPaths(g *graph.Graph) [][2]string {
	var paths [][2]string
	ids := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e := g.Edges[id]
		if e.IsConditional() {
			paths = append(paths, [2]string{e.Source, e.Target})
		}
	}
	return paths
}
