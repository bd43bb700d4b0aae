package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// buildGraph wires a test graph from node ids and source->target pairs.
func buildGraph(t *testing.T, nodes []string, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New("test-graph", "test")
	for _, id := range nodes {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, Type: graph.NodeTypeTool, Name: "Node " + id}))
	}
	for i, pair := range edges {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID:     "e" + string(rune('0'+i%10)) + "_" + pair[0] + pair[1],
			Type:   graph.EdgeTypeDefault,
			Source: pair[0],
			Target: pair[1],
		}))
	}
	return g
}

// diamond: a -> b, a -> c, b -> d, c -> d
func diamondGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
}
