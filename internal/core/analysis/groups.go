package analysis

import (
	"sort"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// ParallelGroups infers sets of nodes that may execute concurrently.
// Nodes sharing a BFS level are candidates; a candidate set is only
// emitted as parallel when no path exists between any pair of its
// members in either direction. Groups larger than maxParallelNodes are
// split into fixed-size sub-batches, order preserved.
func ParallelGroups(g *graph.Graph, startID string, maxParallelNodes int) [][]string {
	levels := Levels(g, startID)
	if len(levels) == 0 {
		return nil
	}

	byLevel := make(map[int][]string)
	maxLevel := 0
	for id, lvl := range levels {
		byLevel[lvl] = append(byLevel[lvl], id)
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	var groups [][]string
	for lvl := 0; lvl <= maxLevel; lvl++ {
		candidates := byLevel[lvl]
		if len(candidates) == 0 {
			continue
		}
		sort.Strings(candidates)

		independent := independentSubset(g, candidates)
		if len(independent) < 2 {
			continue
		}
		groups = append(groups, splitGroup(independent, maxParallelNodes)...)
	}
	return groups
}

// independentSubset keeps only candidates with no path to or from any
// other kept candidate.
func independentSubset(g *graph.Graph, candidates []string) []string {
	var kept []string
	for _, id := range candidates {
		ok := true
		for _, other := range candidates {
			if other == id {
				continue
			}
			if Reachable(g, id, other) || Reachable(g, other, id) {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, id)
		}
	}
	return kept
}

func splitGroup(group []string, maxSize int) [][]string {
	if maxSize <= 0 || len(group) <= maxSize {
		return [][]string{group}
	}
	var batches [][]string
	for start := 0; start < len(group); start += maxSize {
		end := start + maxSize
		if end > len(group) {
			end = len(group)
		}
		batches = append(batches, group[start:end])
	}
	return batches
}
