// Package services contains observability helpers layered on top of the
// scheduling use cases: live state tracking, failure statistics, graph
// mutation history, and run snapshots. Everything here is downstream of
// the coordinator; nothing in this package influences scheduling.
package services

import (
	"sync"
	"time"

	"github.com/graphrun/graphrun/internal/app/dto"
)

// RunState is the tracked live view of one execution.
type RunState struct {
	ExecutionID  string                    `json:"execution_id"`
	GraphID      string                    `json:"graph_id"`
	NodeStatuses map[string]dto.NodeStatus `json:"node_statuses"`
	LastError    string                    `json:"last_error,omitempty"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// StateTracker maintains a per-run map of node statuses, fed by
// coordinator status updates. It implements usecases.StatusSink.
type StateTracker struct {
	mu   sync.RWMutex
	runs map[string]*RunState
}

// NewStateTracker creates an empty tracker.
func NewStateTracker() *StateTracker {
	return &StateTracker{
		runs: make(map[string]*RunState),
	}
}

// OnStatusUpdate records the latest status of a node within its run.
func (t *StateTracker) OnStatusUpdate(update dto.StatusUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[update.ExecutionID]
	if !ok {
		run = &RunState{
			ExecutionID:  update.ExecutionID,
			GraphID:      update.GraphID,
			NodeStatuses: make(map[string]dto.NodeStatus),
		}
		t.runs[update.ExecutionID] = run
	}

	run.NodeStatuses[update.NodeID] = update.Status
	if update.Error != "" {
		run.LastError = update.Error
	}
	run.UpdatedAt = update.Timestamp
}

// RunState returns a copy of the tracked state for an execution, or
// false when the execution was never observed.
func (t *StateTracker) RunState(executionID string) (*RunState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[executionID]
	if !ok {
		return nil, false
	}

	out := &RunState{
		ExecutionID:  run.ExecutionID,
		GraphID:      run.GraphID,
		NodeStatuses: make(map[string]dto.NodeStatus, len(run.NodeStatuses)),
		LastError:    run.LastError,
		UpdatedAt:    run.UpdatedAt,
	}
	for id, status := range run.NodeStatuses {
		out.NodeStatuses[id] = status
	}
	return out, true
}

// NodeStatus returns the last observed status of one node in a run.
func (t *StateTracker) NodeStatus(executionID, nodeID string) (dto.NodeStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	run, ok := t.runs[executionID]
	if !ok {
		return "", false
	}
	status, ok := run.NodeStatuses[nodeID]
	return status, ok
}

// Forget drops the tracked state of a finished run.
func (t *StateTracker) Forget(executionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, executionID)
}

// ActiveRuns returns the number of runs currently tracked.
func (t *StateTracker) ActiveRuns() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.runs)
}
