package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/graph"
)

func typedUpdate(nodeType graph.NodeType, status dto.NodeStatus) dto.StatusUpdate {
	return dto.StatusUpdate{
		ExecutionID: "exec-1",
		NodeID:      "n",
		NodeType:    nodeType,
		Status:      status,
	}
}

func TestStatsService_FailureRate(t *testing.T) {
	stats := NewStatsService()

	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusCompleted))
	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusCompleted))
	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusCompleted))
	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusFailed))

	assert.InDelta(t, 0.25, stats.FailureRate(graph.NodeTypeTool), 1e-9)
	assert.Equal(t, 0.0, stats.FailureRate(graph.NodeTypeLLM), "unseen types report zero")
}

func TestStatsService_IgnoresIntermediateStatuses(t *testing.T) {
	stats := NewStatsService()

	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusRunning))
	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusReady))

	assert.Empty(t, stats.Stats())
	assert.Equal(t, 0.0, stats.FailureRate(graph.NodeTypeTool))
}

func TestStatsService_CountsRetries(t *testing.T) {
	stats := NewStatsService()

	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusPending))
	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeTool, dto.NodeStatusPending))

	assert.Equal(t, 2, stats.Retries())
}

func TestStatsService_StatsCopy(t *testing.T) {
	stats := NewStatsService()
	stats.OnStatusUpdate(typedUpdate(graph.NodeTypeLLM, dto.NodeStatusFailed))

	snapshot := stats.Stats()
	assert.Equal(t, 1, snapshot[graph.NodeTypeLLM].Failed)

	entry := snapshot[graph.NodeTypeLLM]
	entry.Failed = 99
	snapshot[graph.NodeTypeLLM] = entry
	assert.Equal(t, 1.0, stats.FailureRate(graph.NodeTypeLLM), "mutating the copy must not affect internals")
}
