package services

import (
	"sync"

	"github.com/graphrun/graphrun/internal/core/graph"
)

// HistoryRecorder keeps an in-memory append-only log of graph mutation
// events. It implements graph.EventPublisher and is wired into the
// graph service for audit trails.
type HistoryRecorder struct {
	mu     sync.RWMutex
	events []graph.Event
	limit  int
}

// NewHistoryRecorder creates a recorder that retains at most limit
// events; zero or negative means unbounded.
func NewHistoryRecorder(limit int) *HistoryRecorder {
	return &HistoryRecorder{limit: limit}
}

// Publish appends an event to the log, evicting the oldest entries
// when over the retention limit.
func (r *HistoryRecorder) Publish(event graph.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
}

// Events returns a copy of the recorded events in arrival order.
func (r *HistoryRecorder) Events() []graph.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]graph.Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsFor returns the recorded events for one graph.
func (r *HistoryRecorder) EventsFor(graphID string) []graph.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []graph.Event
	for _, e := range r.events {
		if e.GraphID == graphID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained events.
func (r *HistoryRecorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
