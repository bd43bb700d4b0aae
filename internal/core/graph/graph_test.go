package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(id string, nodeType NodeType) *Node {
	return &Node{ID: id, Type: nodeType, Name: "Node " + id}
}

func testEdge(id, source, target string) *Edge {
	return &Edge{ID: id, Type: EdgeTypeDefault, Source: source, Target: target}
}

func TestNode_Validate(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr error
	}{
		{
			name:    "valid node",
			node:    &Node{ID: "n1", Type: NodeTypeTool, Name: "Tool"},
			wantErr: nil,
		},
		{
			name:    "missing id",
			node:    &Node{Type: NodeTypeTool, Name: "Tool"},
			wantErr: ErrInvalidNodeID,
		},
		{
			name:    "missing name",
			node:    &Node{ID: "n1", Type: NodeTypeTool},
			wantErr: ErrInvalidNodeName,
		},
		{
			name:    "missing type",
			node:    &Node{ID: "n1", Name: "Tool"},
			wantErr: ErrInvalidNodeType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNode_Properties(t *testing.T) {
	node := &Node{
		ID: "n1", Type: NodeTypeLLM, Name: "LLM",
		Properties: map[string]interface{}{
			PropMaxRetries:            2,
			PropPriority:              7,
			PropComplexity:            2.5,
			PropErrorHandlingStrategy: "retry",
		},
	}

	assert.Equal(t, 2, node.MaxRetries(3))
	assert.Equal(t, 7, node.Priority())
	assert.Equal(t, 2.5, node.Complexity())
	assert.Equal(t, "retry", node.ErrorHandlingStrategy("stop"))

	bare := testNode("n2", NodeTypeTool)
	assert.Equal(t, 3, bare.MaxRetries(3))
	assert.Equal(t, 0, bare.Priority())
	assert.Equal(t, 1.0, bare.Complexity())
	assert.Equal(t, "stop", bare.ErrorHandlingStrategy("stop"))
}

func TestEdge_Validate(t *testing.T) {
	edge := &Edge{ID: "e1", Source: "a", Target: "b"}
	require.NoError(t, edge.Validate())
	assert.Equal(t, EdgeTypeDefault, edge.Type, "empty type defaults to default")

	assert.ErrorIs(t, (&Edge{Source: "a", Target: "b"}).Validate(), ErrInvalidEdgeID)
	assert.ErrorIs(t, (&Edge{ID: "e1", Target: "b"}).Validate(), ErrInvalidSource)
	assert.ErrorIs(t, (&Edge{ID: "e1", Source: "a"}).Validate(), ErrInvalidTarget)
}

func TestEdge_IsConditional(t *testing.T) {
	assert.True(t, (&Edge{Type: EdgeTypeConditional}).IsConditional())
	assert.True(t, (&Edge{Type: EdgeTypeFlexibleConditional}).IsConditional())
	assert.False(t, (&Edge{Type: EdgeTypeDefault}).IsConditional())
	assert.False(t, (&Edge{Type: EdgeTypeError}).IsConditional())
}

func TestGraph_AddNode(t *testing.T) {
	g := New("g1", "test")

	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	assert.ErrorIs(t, g.AddNode(testNode("a", NodeTypeTool)), ErrDuplicateNode)
	assert.ErrorIs(t, g.AddNode(nil), ErrNilNode)
	assert.ErrorIs(t, g.AddNode(&Node{ID: "b"}), ErrInvalidNodeName)
}

func TestGraph_RemoveNode(t *testing.T) {
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeEnd)))
	require.NoError(t, g.AddEdge(testEdge("e1", "a", "b")))

	assert.ErrorIs(t, g.RemoveNode("a"), ErrNodeConnected)
	assert.ErrorIs(t, g.RemoveNode("missing"), ErrNodeNotFound)

	require.NoError(t, g.RemoveEdge("e1"))
	require.NoError(t, g.RemoveNode("a"))
	_, err := g.GetNode("a")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGraph_AddEdge(t *testing.T) {
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeEnd)))

	require.NoError(t, g.AddEdge(testEdge("e1", "a", "b")))
	assert.ErrorIs(t, g.AddEdge(testEdge("e1", "a", "b")), ErrDuplicateEdge)
	assert.ErrorIs(t, g.AddEdge(testEdge("e2", "missing", "b")), ErrSourceNodeNotFound)
	assert.ErrorIs(t, g.AddEdge(testEdge("e3", "a", "missing")), ErrTargetNodeNotFound)
	assert.ErrorIs(t, g.AddEdge(nil), ErrNilEdge)
}

func TestGraph_Degrees(t *testing.T) {
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeTool)))
	require.NoError(t, g.AddNode(testNode("c", NodeTypeEnd)))
	require.NoError(t, g.AddEdge(testEdge("e1", "a", "b")))
	require.NoError(t, g.AddEdge(testEdge("e2", "a", "c")))
	require.NoError(t, g.AddEdge(testEdge("e3", "b", "c")))

	assert.Equal(t, 0, g.InDegree("a"))
	assert.Equal(t, 2, g.OutDegree("a"))
	assert.Equal(t, 2, g.InDegree("c"))
	assert.Equal(t, 0, g.OutDegree("c"))

	assert.Len(t, g.EdgesFrom("a"), 2)
	assert.Len(t, g.EdgesTo("c"), 2)
	assert.Empty(t, g.EdgesFrom("c"))
}

func TestGraph_StartNode(t *testing.T) {
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeEnd)))
	require.NoError(t, g.AddEdge(testEdge("e1", "a", "b")))

	start, err := g.StartNode()
	require.NoError(t, err)
	assert.Equal(t, "a", start.ID)
}

func TestGraph_StartNode_Ambiguous(t *testing.T) {
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("c", NodeTypeEnd)))
	require.NoError(t, g.AddEdge(testEdge("e1", "a", "c")))
	require.NoError(t, g.AddEdge(testEdge("e2", "b", "c")))

	_, err := g.StartNode()
	assert.ErrorIs(t, err, ErrAmbiguousStart)
}

func TestGraph_StartNode_None(t *testing.T) {
	// Two-node cycle leaves no zero in-degree node.
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeTool)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeTool)))
	require.NoError(t, g.AddEdge(testEdge("e1", "a", "b")))
	require.NoError(t, g.AddEdge(testEdge("e2", "b", "a")))

	_, err := g.StartNode()
	assert.ErrorIs(t, err, ErrNoStartNode)
}

func TestGraph_Validate_DanglingEdge(t *testing.T) {
	g := New("g1", "test")
	require.NoError(t, g.AddNode(testNode("a", NodeTypeStart)))
	require.NoError(t, g.AddNode(testNode("b", NodeTypeEnd)))
	require.NoError(t, g.AddEdge(testEdge("e1", "a", "b")))
	require.NoError(t, g.Validate())

	// Bypass RemoveNode's connectivity check to produce a dangling edge.
	delete(g.Nodes, "b")
	assert.ErrorIs(t, g.Validate(), ErrDanglingEdge)
}
