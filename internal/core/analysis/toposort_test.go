package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphrun/graphrun/internal/core/graph"
)

func TestTopologicalSort_Diamond(t *testing.T) {
	g := diamondGraph(t)

	order, err := TopologicalSort(g)
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges {
		assert.Less(t, pos[e.Source], pos[e.Target],
			"edge %s->%s must respect the order", e.Source, e.Target)
	}
}

func TestTopologicalSort_Cycle(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b"},
		[][2]string{{"a", "b"}, {"b", "a"}},
	)

	order, err := TopologicalSort(g)
	assert.ErrorIs(t, err, graph.ErrCyclicGraph)
	assert.Nil(t, order, "no partial ordering on cyclic graphs")
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)

	first, err := TopologicalSort(g)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := TopologicalSort(g)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCriticalPath_LongestByNodeCount(t *testing.T) {
	// a -> b -> d is longer than a -> d.
	g := buildGraph(t,
		[]string{"a", "b", "d"},
		[][2]string{{"a", "b"}, {"a", "d"}, {"b", "d"}},
	)

	path := CriticalPath(g, "a")
	assert.Equal(t, []string{"a", "b", "d"}, path)
}

func TestCriticalPath_UnknownStart(t *testing.T) {
	assert.Nil(t, CriticalPath(diamondGraph(t), "missing"))
}

func TestCriticalPath_SingleNode(t *testing.T) {
	g := buildGraph(t, []string{"only"}, nil)
	assert.Equal(t, []string{"only"}, CriticalPath(g, "only"))
}

func TestConditionalPaths(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}},
	)
	require.NoError(t, g.AddEdge(&graph.Edge{
		ID: "cond", Type: graph.EdgeTypeConditional,
		Source: "a", Target: "c", Condition: "result.ok",
	}))

	paths := ConditionalPaths(g)
	require.Len(t, paths, 1)
	assert.Equal(t, [2]string{"a", "c"}, paths[0])
}
