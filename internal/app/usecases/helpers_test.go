package usecases

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

// buildGraph wires a test graph from typed nodes and source->target pairs.
func buildGraph(t *testing.T, nodes map[string]graph.NodeType, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New("test-graph", "test")
	for id, nodeType := range nodes {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, Type: nodeType, Name: "Node " + id}))
	}
	for i, pair := range edges {
		require.NoError(t, g.AddEdge(&graph.Edge{
			ID:     fmt.Sprintf("e%d_%s_%s", i, pair[0], pair[1]),
			Type:   graph.EdgeTypeDefault,
			Source: pair[0],
			Target: pair[1],
		}))
	}
	return g
}

// diamondGraph builds a -> {b, c} -> d with tool nodes.
func diamondGraph(t *testing.T) *graph.Graph {
	t.Helper()
	return buildGraph(t,
		map[string]graph.NodeType{
			"a": graph.NodeTypeStart,
			"b": graph.NodeTypeTool,
			"c": graph.NodeTypeTool,
			"d": graph.NodeTypeEnd,
		},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
}

// fakeRepo is a minimal GraphRepository for tests.
type fakeRepo struct {
	mu     sync.RWMutex
	graphs map[string]*graph.Graph
}

func newFakeRepo(graphs ...*graph.Graph) *fakeRepo {
	r := &fakeRepo{graphs: make(map[string]*graph.Graph)}
	for _, g := range graphs {
		r.graphs[g.ID] = g
	}
	return r
}

func (r *fakeRepo) Save(ctx context.Context, g *graph.Graph) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[g.ID] = g
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", graph.ErrGraphNotFound, id)
	}
	return g, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*graph.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*graph.Graph, 0, len(r.graphs))
	for _, g := range r.graphs {
		out = append(out, g)
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.graphs, id)
	return nil
}

// alwaysValid is a GraphValidator that approves everything.
type alwaysValid struct{}

func (alwaysValid) ValidateStructure(ctx context.Context, g *graph.Graph) (*dto.ValidationReport, error) {
	return &dto.ValidationReport{IsValid: true}, nil
}

// scriptedExecutor fails a node a configured number of times before
// succeeding, and records settlement order.
type scriptedExecutor struct {
	mu        sync.Mutex
	failures  map[string]int // node id -> remaining failures
	critical  map[string]bool
	delay     time.Duration
	execOrder []string
	started   map[string]time.Time
	finished  map[string]time.Time
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{
		failures: make(map[string]int),
		critical: make(map[string]bool),
		started:  make(map[string]time.Time),
		finished: make(map[string]time.Time),
	}
}

func (e *scriptedExecutor) failNode(nodeID string, times int) { e.failures[nodeID] = times }

func (e *scriptedExecutor) failCritical(nodeID string) {
	e.failures[nodeID] = 1 << 30
	e.critical[nodeID] = true
}

func (e *scriptedExecutor) Execute(ctx context.Context, node *graph.Node, input map[string]interface{}, execCtx map[string]interface{}) (map[string]interface{}, error) {
	e.mu.Lock()
	e.started[node.ID] = time.Now()
	e.mu.Unlock()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished[node.ID] = time.Now()
	e.execOrder = append(e.execOrder, node.ID)

	if remaining := e.failures[node.ID]; remaining > 0 {
		e.failures[node.ID] = remaining - 1
		err := fmt.Errorf("scripted failure for %s", node.ID)
		if e.critical[node.ID] {
			return nil, Critical(err)
		}
		return nil, err
	}
	return map[string]interface{}{"node": node.ID}, nil
}

func (e *scriptedExecutor) order() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.execOrder...)
}

// singleExecutorFactory serves the same executor for every node type.
type singleExecutorFactory struct {
	executor NodeExecutor
}

func (f singleExecutorFactory) ExecutorFor(nodeType graph.NodeType) (NodeExecutor, error) {
	return f.executor, nil
}

// recordingSink collects status updates for assertions.
type recordingSink struct {
	mu      sync.Mutex
	updates []dto.StatusUpdate
}

func (s *recordingSink) OnStatusUpdate(update dto.StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
}

func (s *recordingSink) byStatus(status dto.NodeStatus) []dto.StatusUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dto.StatusUpdate
	for _, u := range s.updates {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out
}
