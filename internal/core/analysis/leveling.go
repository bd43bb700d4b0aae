// Package analysis provides pure structural algorithms over the core
// graph entity: leveling, cycle detection, topological ordering,
// critical-path search, parallel-group inference and metrics. Nothing
// in this package mutates the graph or performs I/O.
package analysis

import (
	"github.com/graphrun/graphrun/internal/core/graph"
)

// Levels computes the BFS level of every node reachable from startID.
// level(start) = 0 and level(child) = level(parent) + 1; a node reached
// through multiple parents keeps its first assigned level.
func Levels(g *graph.Graph, startID string) map[string]int {
	levels := make(map[string]int)
	if _, ok := g.Nodes[startID]; !ok {
		return levels
	}

	levels[startID] = 0
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.EdgesFrom(current) {
			if _, seen := levels[e.Target]; seen {
				continue
			}
			levels[e.Target] = levels[current] + 1
			queue = append(queue, e.Target)
		}
	}
	return levels
}

// Reachable reports whether a directed path exists from fromID to toID.
func Reachable(g *graph.Graph, fromID, toID string) bool {
	if fromID == toID {
		return true
	}
	visited := map[string]bool{fromID: true}
	queue := []string{fromID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range g.EdgesFrom(current) {
			if e.Target == toID {
				return true
			}
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return false
}
