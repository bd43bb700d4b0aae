// Package graph defines domain events emitted on graph mutation.
package graph

import "time"

// EventType identifies a graph domain event.
type EventType string

const (
	EventGraphCreated EventType = "graph_created"
	EventNodeAdded    EventType = "node_added"
	EventNodeRemoved  EventType = "node_removed"
	EventEdgeAdded    EventType = "edge_added"
	EventEdgeRemoved  EventType = "edge_removed"
)

// Event is a fire-and-forget notification about a graph mutation.
// It is consumed by history/audit subscribers, never by the scheduler.
type Event struct {
	Type       EventType `json:"type"`
	GraphID    string    `json:"graph_id"`
	NodeID     string    `json:"node_id,omitempty"`
	EdgeID     string    `json:"edge_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher delivers domain events to subscribers. Publish must not
// block graph operations; failures are the publisher's concern.
type EventPublisher interface {
	Publish(event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) {}
