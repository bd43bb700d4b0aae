package analysis

import (
	"sort"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// DFS colors. White nodes are unvisited, grey nodes are on the current
// DFS path, black nodes are fully explored.
const (
	white = 0
	grey  = 1
	black = 2
)

// sortedNodeIDs returns node ids in deterministic order so repeated
// analyses of the same graph produce identical results.
func sortedNodeIDs(g *graph.Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedTargets(g *graph.Graph, nodeID string) []string {
	var targets []string
	for _, e := range g.EdgesFrom(nodeID) {
		targets = append(targets, e.Target)
	}
	sort.Strings(targets)
	return targets
}

// HasCycle reports whether the graph contains a directed cycle.
func HasCycle(g *graph.Graph) bool {
	return len(FindCycle(g)) > 0
}

// FindCycle returns one directed cycle as the slice of node ids from the
// first repeated node to the edge that closes the loop, or nil when the
// graph is acyclic. The DFS uses an explicit stack so recursion depth is
// not bounded by graph size.
func FindCycle(g *graph.Graph) []string {
	color := make(map[string]int, len(g.Nodes))

	type frame struct {
		node string
		next int // index into the node's sorted adjacency list
	}

	for _, root := range sortedNodeIDs(g) {
		if color[root] != white {
			continue
		}
		stack := []frame{{node: root}}
		path := []string{root}
		color[root] = grey

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			targets := sortedTargets(g, top.node)
			if top.next < len(targets) {
				next := targets[top.next]
				top.next++
				switch color[next] {
				case grey:
					// Back-edge: slice the current path from the repeated node.
					for i, id := range path {
						if id == next {
							cycle := make([]string, len(path)-i)
							copy(cycle, path[i:])
							return cycle
						}
					}
				case white:
					color[next] = grey
					stack = append(stack, frame{node: next})
					path = append(path, next)
				}
				continue
			}
			color[top.node] = black
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}
	return nil
}

// CycleCount returns the number of distinct back-edges discovered by a
// full DFS sweep, an upper-bound indicator of how cyclic the graph is.
func CycleCount(g *graph.Graph) int {
	color := make(map[string]int, len(g.Nodes))
	count := 0

	type frame struct {
		node string
		next int
	}

	for _, root := range sortedNodeIDs(g) {
		if color[root] != white {
			continue
		}
		stack := []frame{{node: root}}
		color[root] = grey

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			targets := sortedTargets(g, top.node)
			if top.next < len(targets) {
				next := targets[top.next]
				top.next++
				switch color[next] {
				case grey:
					count++
				case white:
					color[next] = grey
					stack = append(stack, frame{node: next})
				}
				continue
			}
			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}
	return count
}

// StronglyConnectedComponents groups mutually reachable nodes using
// Tarjan's algorithm with an explicit stack. Components are returned in
// reverse topological order of the condensed graph; singleton components
// without a self-loop are included.
func StronglyConnectedComponents(g *graph.Graph) [][]string {
	index := make(map[string]int, len(g.Nodes))
	lowlink := make(map[string]int, len(g.Nodes))
	onStack := make(map[string]bool, len(g.Nodes))
	var sccStack []string
	var components [][]string
	counter := 0

	type frame struct {
		node string
		next int
	}

	for _, root := range sortedNodeIDs(g) {
		if _, visited := index[root]; visited {
			continue
		}
		stack := []frame{{node: root}}
		index[root] = counter
		lowlink[root] = counter
		counter++
		sccStack = append(sccStack, root)
		onStack[root] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			targets := sortedTargets(g, top.node)
			if top.next < len(targets) {
				next := targets[top.next]
				top.next++
				if _, visited := index[next]; !visited {
					index[next] = counter
					lowlink[next] = counter
					counter++
					sccStack = append(sccStack, next)
					onStack[next] = true
					stack = append(stack, frame{node: next})
				} else if onStack[next] {
					if index[next] < lowlink[top.node] {
						lowlink[top.node] = index[next]
					}
				}
				continue
			}

			node := top.node
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1].node
				if lowlink[node] < lowlink[parent] {
					lowlink[parent] = lowlink[node]
				}
			}
			if lowlink[node] == index[node] {
				var component []string
				for {
					last := sccStack[len(sccStack)-1]
					sccStack = sccStack[:len(sccStack)-1]
					onStack[last] = false
					component = append(component, last)
					if last == node {
						break
					}
				}
				sort.Strings(component)
				components = append(components, component)
			}
		}
	}
	return components
}
