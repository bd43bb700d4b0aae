// Package integration exercises the full pipeline end to end: graph
// assembly, plan generation, coordinated execution and snapshot capture,
// all against in-memory adapters.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphrun/graphrun/internal/adapters/repository/memory"
	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/app/services"
	"github.com/graphrun/graphrun/internal/app/usecases"
	"github.com/graphrun/graphrun/internal/core/graph"
	"github.com/graphrun/graphrun/pkg/validation"

	graphrepo "github.com/graphrun/graphrun/internal/adapters/repository/graph"
)

func diamondRequest() usecases.CreateGraphRequest {
	return usecases.CreateGraphRequest{
		Name: "diamond",
		Nodes: []usecases.NodeRequest{
			{ID: "start", Type: graph.NodeTypeStart, Name: "Start"},
			{ID: "left", Type: graph.NodeTypeTool, Name: "Left"},
			{ID: "right", Type: graph.NodeTypeTool, Name: "Right"},
			{ID: "end", Type: graph.NodeTypeEnd, Name: "End"},
		},
		Edges: []usecases.EdgeRequest{
			{ID: "e1", Source: "start", Target: "left"},
			{ID: "e2", Source: "start", Target: "right"},
			{ID: "e3", Source: "left", Target: "end"},
			{ID: "e4", Source: "right", Target: "end"},
		},
	}
}

func TestFullPipeline(t *testing.T) {
	ctx := context.Background()

	repo := graphrepo.NewInMemoryGraphRepository()
	validator := validation.NewStructureValidator(validation.Options{CheckCycles: true})
	history := services.NewHistoryRecorder(0)
	tracker := services.NewStateTracker()
	stats := services.NewStatsService()

	graphs := usecases.NewGraphService(repo, validator, history, nil)

	g, err := graphs.CreateGraph(ctx, diamondRequest())
	require.NoError(t, err)
	require.NotEmpty(t, g.ID)

	t.Run("Planning", func(t *testing.T) {
		planner := usecases.NewExecutionPlanner(repo, validator, stats, nil)

		plan, err := planner.CreateExecutionPlan(ctx, g.ID, dto.PlanOptions{
			ExecutionMode: dto.ExecutionModeParallel,
		})
		require.NoError(t, err)
		require.Len(t, plan.Steps, 4)

		// Level order: start before the branches, branches before end.
		pos := make(map[string]int, len(plan.Steps))
		for i, step := range plan.Steps {
			pos[step.NodeID] = i
		}
		assert.Less(t, pos["start"], pos["left"])
		assert.Less(t, pos["start"], pos["right"])
		assert.Greater(t, pos["end"], pos["left"])
		assert.Greater(t, pos["end"], pos["right"])
	})

	var result *dto.RunResult

	t.Run("Execution", func(t *testing.T) {
		coordinator := usecases.NewNodeCoordinator(
			repo,
			usecases.NewDefaultNodeExecutorFactory(),
			validator,
			nil,
			tracker, stats,
		)

		result, err = coordinator.CoordinateNodeExecution(ctx, &dto.RunRequest{
			GraphID: g.ID,
			Input:   map[string]interface{}{"payload": "hello"},
			Config: dto.RunConfig{
				MaxParallelNodes: 2,
				Timeout:          5 * time.Second,
				ValidateGraph:    true,
			},
		})
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, dto.RunStatusCompleted, result.Status)
		assert.Len(t, result.ExecutionPath, 4)
		assert.Equal(t, "start", result.ExecutionPath[0])
		assert.Equal(t, "end", result.ExecutionPath[3])
		for _, res := range result.Results {
			assert.True(t, res.Success)
		}
	})

	t.Run("StateTracking", func(t *testing.T) {
		state, ok := tracker.RunState(result.ExecutionID)
		require.True(t, ok)
		assert.Equal(t, g.ID, state.GraphID)
		for _, nodeID := range []string{"start", "left", "right", "end"} {
			assert.Equal(t, dto.NodeStatusCompleted, state.NodeStatuses[nodeID])
		}

		assert.Zero(t, stats.FailureRate(graph.NodeTypeTool))
	})

	t.Run("SnapshotCapture", func(t *testing.T) {
		saver := memory.NewSnapshotSaver()
		snapshots := services.NewSnapshotService(saver, nil)

		snap, err := snapshots.CaptureResult(ctx, result)
		require.NoError(t, err)
		assert.Equal(t, result.ExecutionID, snap.ExecutionID)
		assert.Len(t, snap.NodeStatuses, 4)

		stored, err := snapshots.History(ctx, result.ExecutionID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
	})

	t.Run("MutationEvents", func(t *testing.T) {
		events := history.EventsFor(g.ID)
		require.NotEmpty(t, events)
		assert.Equal(t, graph.EventGraphCreated, events[0].Type)
	})
}
