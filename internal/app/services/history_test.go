package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphrun/graphrun/internal/core/graph"
)

func event(eventType graph.EventType, graphID string) graph.Event {
	return graph.Event{Type: eventType, GraphID: graphID, OccurredAt: time.Now()}
}

func TestHistoryRecorder_AppendsInOrder(t *testing.T) {
	r := NewHistoryRecorder(0)

	r.Publish(event(graph.EventGraphCreated, "g1"))
	r.Publish(event(graph.EventNodeAdded, "g1"))
	r.Publish(event(graph.EventEdgeAdded, "g2"))

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, graph.EventGraphCreated, events[0].Type)
	assert.Equal(t, graph.EventEdgeAdded, events[2].Type)
	assert.Equal(t, 3, r.Len())
}

func TestHistoryRecorder_FiltersByGraph(t *testing.T) {
	r := NewHistoryRecorder(0)
	r.Publish(event(graph.EventGraphCreated, "g1"))
	r.Publish(event(graph.EventGraphCreated, "g2"))
	r.Publish(event(graph.EventNodeAdded, "g1"))

	assert.Len(t, r.EventsFor("g1"), 2)
	assert.Len(t, r.EventsFor("g2"), 1)
	assert.Empty(t, r.EventsFor("g3"))
}

func TestHistoryRecorder_RetentionLimit(t *testing.T) {
	r := NewHistoryRecorder(2)

	r.Publish(event(graph.EventGraphCreated, "g1"))
	r.Publish(event(graph.EventNodeAdded, "g1"))
	r.Publish(event(graph.EventEdgeAdded, "g1"))

	events := r.Events()
	require.Len(t, events, 2, "oldest events are evicted beyond the limit")
	assert.Equal(t, graph.EventNodeAdded, events[0].Type)
	assert.Equal(t, graph.EventEdgeAdded, events[1].Type)
}

func TestHistoryRecorder_EventsReturnsCopy(t *testing.T) {
	r := NewHistoryRecorder(0)
	r.Publish(event(graph.EventGraphCreated, "g1"))

	events := r.Events()
	events[0].GraphID = "tampered"
	assert.Equal(t, "g1", r.Events()[0].GraphID)
}
