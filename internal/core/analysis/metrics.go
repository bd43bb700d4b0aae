package analysis

import (
	"github.com/graphrun/graphrun/internal/core/graph"
)

// Metrics is a pure structural report over a graph. It has no
// control-flow impact on planning or execution.
type Metrics struct {
	NodeCount            int                        `json:"node_count"`
	EdgeCount            int                        `json:"edge_count"`
	NodesByType          map[graph.NodeType]int     `json:"nodes_by_type"`
	EdgesByType          map[graph.EdgeType]int     `json:"edges_by_type"`
	CyclomaticComplexity int                        `json:"cyclomatic_complexity"`
	Density              float64                    `json:"density"`
	MaxInDegree          int                        `json:"max_in_degree"`
	MaxOutDegree         int                        `json:"max_out_degree"`
	AvgDegree            float64                    `json:"avg_degree"`
	CycleCount           int                        `json:"cycle_count"`
}

// ComputeMetrics gathers node/edge counts by type, cyclomatic complexity
// (edges - nodes + 2), density (edges / (nodes * (nodes - 1))) and
// degree statistics.
func ComputeMetrics(g *graph.Graph) Metrics {
	m := Metrics{
		NodeCount:   len(g.Nodes),
		EdgeCount:   len(g.Edges),
		NodesByType: make(map[graph.NodeType]int),
		EdgesByType: make(map[graph.EdgeType]int),
		CycleCount:  CycleCount(g),
	}
	for _, n := range g.Nodes {
		m.NodesByType[n.Type]++
	}
	for _, e := range g.Edges {
		m.EdgesByType[e.Type]++
	}

	m.CyclomaticComplexity = m.EdgeCount - m.NodeCount + 2
	if m.NodeCount > 1 {
		m.Density = float64(m.EdgeCount) / float64(m.NodeCount*(m.NodeCount-1))
	}

	totalDegree := 0
	for id := range g.Nodes {
		in := g.InDegree(id)
		out := g.OutDegree(id)
		if in > m.MaxInDegree {
			m.MaxInDegree = in
		}
		if out > m.MaxOutDegree {
			m.MaxOutDegree = out
		}
		totalDegree += in + out
	}
	if m.NodeCount > 0 {
		m.AvgDegree = float64(totalDegree) / float64(m.NodeCount)
	}
	return m
}

// Result bundles the per-start-node analysis consumed by the planner.
type Result struct {
	StartNodeID      string         `json:"start_node_id"`
	Levels           map[string]int `json:"levels"`
	CriticalPath     []string       `json:"critical_path"`
	ParallelGroups   [][]string     `json:"parallel_groups"`
	ConditionalPaths [][2]string    `json:"conditional_paths"`
	CycleCount       int            `json:"cycle_count"`
	Metrics          Metrics        `json:"metrics"`
}

// Analyze runs the full structural analysis from the given start node.
func Analyze(g *graph.Graph, startID string, maxParallelNodes int) Result {
	return Result{
		StartNodeID:      startID,
		Levels:           Levels(g, startID),
		CriticalPath:     CriticalPath(g, startID),
		ParallelGroups:   ParallelGroups(g, startID, maxParallelNodes),
		ConditionalPaths: ConditionalPaths(g),
		CycleCount:       CycleCount(g),
		Metrics:          ComputeMetrics(g),
	}
}
