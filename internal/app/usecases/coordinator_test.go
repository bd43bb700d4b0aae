package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

func runGraph(t *testing.T, g *graph.Graph, executor NodeExecutor, sinks ...StatusSink) (*dto.RunResult, error) {
	t.Helper()
	repo := newFakeRepo(g)
	c := NewNodeCoordinator(repo, singleExecutorFactory{executor}, alwaysValid{}, nil, sinks...)
	return c.CoordinateNodeExecution(context.Background(), &dto.RunRequest{
		GraphID: g.ID,
		Input:   map[string]interface{}{"seed": 1},
	})
}

func indexOf(path []string, id string) int {
	for i, v := range path {
		if v == id {
			return i
		}
	}
	return -1
}

func TestCoordinator_LinearChain(t *testing.T) {
	g := buildGraph(t,
		map[string]graph.NodeType{
			"a": graph.NodeTypeStart,
			"b": graph.NodeTypeTool,
			"c": graph.NodeTypeEnd,
		},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)
	executor := newScriptedExecutor()

	result, err := runGraph(t, g, executor)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusCompleted, result.Status)
	assert.Equal(t, []string{"a", "b", "c"}, result.ExecutionPath)
	assert.Len(t, result.Results, 3)
	assert.NotEmpty(t, result.ExecutionID)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestCoordinator_Diamond_JoinWaitsForAllBranches(t *testing.T) {
	g := diamondGraph(t)
	executor := newScriptedExecutor()

	result, err := runGraph(t, g, executor)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusCompleted, result.Status)
	require.Len(t, result.ExecutionPath, 4)

	dIdx := indexOf(result.ExecutionPath, "d")
	assert.Greater(t, dIdx, indexOf(result.ExecutionPath, "b"))
	assert.Greater(t, dIdx, indexOf(result.ExecutionPath, "c"))

	// b and c were dispatched in the same batch: both finished before
	// d started.
	executor.mu.Lock()
	dStart := executor.started["d"]
	bEnd := executor.finished["b"]
	cEnd := executor.finished["c"]
	executor.mu.Unlock()
	assert.False(t, dStart.Before(bEnd))
	assert.False(t, dStart.Before(cEnd))
}

func TestCoordinator_StopPolicyAbortsRun(t *testing.T) {
	g := buildGraph(t,
		map[string]graph.NodeType{
			"a": graph.NodeTypeStart,
			"b": graph.NodeTypeTool,
			"c": graph.NodeTypeEnd,
		},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)
	executor := newScriptedExecutor()
	executor.failNode("b", 1)

	result, err := runGraph(t, g, executor)
	require.ErrorIs(t, err, dto.ErrExecutionFailed)
	assert.Equal(t, dto.RunStatusFailed, result.Status)
	assert.NotContains(t, result.ExecutionPath, "c", "dependents never ran")
	assert.Contains(t, result.Results["b"].Error, "scripted failure")
}

func TestCoordinator_ContinuePolicyLetsSiblingsFinish(t *testing.T) {
	// flaky fails terminally under the continue policy; its independent
	// siblings still complete, and the run finishes failed.
	g := graph.New("g-continue", "continue")
	require.NoError(t, g.AddNode(&graph.Node{ID: "a", Type: graph.NodeTypeStart, Name: "A"}))
	require.NoError(t, g.AddNode(&graph.Node{
		ID: "flaky", Type: graph.NodeTypeTool, Name: "Flaky",
		Properties: map[string]interface{}{graph.PropErrorHandlingStrategy: "continue"},
	}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "b", Type: graph.NodeTypeTool, Name: "B"}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "c", Type: graph.NodeTypeTool, Name: "C"}))
	require.NoError(t, g.AddEdge(&graph.Edge{ID: "e1", Source: "a", Target: "flaky"}))
	require.NoError(t, g.AddEdge(&graph.Edge{ID: "e2", Source: "a", Target: "b"}))
	require.NoError(t, g.AddEdge(&graph.Edge{ID: "e3", Source: "b", Target: "c"}))

	executor := newScriptedExecutor()
	executor.failNode("flaky", 1)

	result, err := runGraph(t, g, executor)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusFailed, result.Status)
	assert.Contains(t, result.ExecutionPath, "b")
	assert.Contains(t, result.ExecutionPath, "c")
	assert.True(t, result.Results["b"].Success)
	assert.True(t, result.Results["c"].Success)
	assert.False(t, result.Results["flaky"].Success)
}

func TestCoordinator_RetryPolicyRequeues(t *testing.T) {
	g := graph.New("g-retry", "retry")
	require.NoError(t, g.AddNode(&graph.Node{ID: "a", Type: graph.NodeTypeStart, Name: "A"}))
	require.NoError(t, g.AddNode(&graph.Node{
		ID: "flaky", Type: graph.NodeTypeTool, Name: "Flaky",
		Properties: map[string]interface{}{
			graph.PropErrorHandlingStrategy: "retry",
			graph.PropMaxRetries:            3,
		},
	}))
	require.NoError(t, g.AddEdge(&graph.Edge{ID: "e1", Source: "a", Target: "flaky"}))

	executor := newScriptedExecutor()
	executor.failNode("flaky", 2)

	sink := &recordingSink{}
	result, err := runGraph(t, g, executor, sink)
	require.NoError(t, err)
	assert.Equal(t, dto.RunStatusCompleted, result.Status)
	assert.True(t, result.Results["flaky"].Success, "third attempt succeeds")

	// Two retry requeues were announced as pending.
	assert.Len(t, sink.byStatus(dto.NodeStatusPending), 2)
}

func TestCoordinator_RetriesExhausted(t *testing.T) {
	g := graph.New("g-exhaust", "exhaust")
	require.NoError(t, g.AddNode(&graph.Node{ID: "a", Type: graph.NodeTypeStart, Name: "A"}))
	require.NoError(t, g.AddNode(&graph.Node{
		ID: "flaky", Type: graph.NodeTypeTool, Name: "Flaky",
		Properties: map[string]interface{}{
			graph.PropErrorHandlingStrategy: "retry",
			graph.PropMaxRetries:            1,
		},
	}))
	require.NoError(t, g.AddEdge(&graph.Edge{ID: "e1", Source: "a", Target: "flaky"}))

	executor := newScriptedExecutor()
	executor.failNode("flaky", 10)

	result, _ := runGraph(t, g, executor)
	assert.Equal(t, dto.RunStatusFailed, result.Status)
	assert.False(t, result.Results["flaky"].Success)
}

func TestCoordinator_CriticalErrorSkipsRetry(t *testing.T) {
	g := graph.New("g-critical", "critical")
	require.NoError(t, g.AddNode(&graph.Node{ID: "a", Type: graph.NodeTypeStart, Name: "A"}))
	require.NoError(t, g.AddNode(&graph.Node{
		ID: "doomed", Type: graph.NodeTypeTool, Name: "Doomed",
		Properties: map[string]interface{}{
			graph.PropErrorHandlingStrategy: "retry",
			graph.PropMaxRetries:            5,
		},
	}))
	require.NoError(t, g.AddEdge(&graph.Edge{ID: "e1", Source: "a", Target: "doomed"}))

	executor := newScriptedExecutor()
	executor.failCritical("doomed")

	sink := &recordingSink{}
	result, _ := runGraph(t, g, executor, sink)
	assert.Equal(t, dto.RunStatusFailed, result.Status)
	assert.Empty(t, sink.byStatus(dto.NodeStatusPending), "critical errors are never requeued")

	// One attempt only: a plus doomed.
	assert.Len(t, executor.order(), 2)
}

func TestCoordinator_DeadlockDetected(t *testing.T) {
	g := buildGraph(t,
		map[string]graph.NodeType{
			"a": graph.NodeTypeStart,
			"b": graph.NodeTypeTool,
			"c": graph.NodeTypeTool,
		},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "b"}},
	)
	executor := newScriptedExecutor()

	result, err := runGraph(t, g, executor)
	require.ErrorIs(t, err, dto.ErrExecutionDeadlock)
	assert.Equal(t, dto.RunStatusFailed, result.Status)
	assert.Equal(t, []string{"a"}, result.ExecutionPath)
}

func TestCoordinator_ContextCancellation(t *testing.T) {
	g := diamondGraph(t)
	executor := newScriptedExecutor()
	executor.delay = 100 * time.Millisecond

	repo := newFakeRepo(g)
	c := NewNodeCoordinator(repo, singleExecutorFactory{executor}, alwaysValid{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	result, err := c.CoordinateNodeExecution(ctx, &dto.RunRequest{GraphID: g.ID})
	require.Error(t, err)
	assert.NotEqual(t, dto.RunStatusCompleted, result.Status)
}

func TestCoordinator_RequestValidation(t *testing.T) {
	c := NewNodeCoordinator(newFakeRepo(), NewDefaultNodeExecutorFactory(), alwaysValid{}, nil)

	_, err := c.CoordinateNodeExecution(context.Background(), &dto.RunRequest{})
	assert.ErrorIs(t, err, dto.ErrMissingGraphID)

	_, err = c.CoordinateNodeExecution(context.Background(), &dto.RunRequest{GraphID: "missing"})
	assert.ErrorIs(t, err, graph.ErrGraphNotFound)
}

func TestCoordinator_UnknownStartNode(t *testing.T) {
	g := diamondGraph(t)
	c := NewNodeCoordinator(newFakeRepo(g), NewDefaultNodeExecutorFactory(), alwaysValid{}, nil)

	_, err := c.CoordinateNodeExecution(context.Background(), &dto.RunRequest{
		GraphID:     g.ID,
		StartNodeID: "missing",
	})
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestCoordinator_RunLifecycleOpsRequireActiveRun(t *testing.T) {
	c := NewNodeCoordinator(newFakeRepo(), NewDefaultNodeExecutorFactory(), alwaysValid{}, nil)

	assert.ErrorIs(t, c.PauseNode("gone", "n"), dto.ErrRunNotFound)
	assert.ErrorIs(t, c.ResumeNode("gone", "n"), dto.ErrRunNotFound)
	assert.ErrorIs(t, c.CancelNode("gone", "n"), dto.ErrRunNotFound)
	_, err := c.RunQueueStatus("gone")
	assert.ErrorIs(t, err, dto.ErrRunNotFound)
}

func TestCoordinator_StatusSinkSequence(t *testing.T) {
	g := buildGraph(t,
		map[string]graph.NodeType{"a": graph.NodeTypeStart, "b": graph.NodeTypeEnd},
		[][2]string{{"a", "b"}},
	)
	executor := newScriptedExecutor()
	sink := &recordingSink{}

	result, err := runGraph(t, g, executor, sink)
	require.NoError(t, err)

	running := sink.byStatus(dto.NodeStatusRunning)
	completed := sink.byStatus(dto.NodeStatusCompleted)
	assert.Len(t, running, 2)
	assert.Len(t, completed, 2)
	for _, u := range completed {
		assert.Equal(t, result.ExecutionID, u.ExecutionID)
		assert.Equal(t, g.ID, u.GraphID)
		assert.NotNil(t, u.Output)
	}
}
