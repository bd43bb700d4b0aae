// Package snapshot provides the core run-snapshot entity and saver
// interface, following Clean Architecture with zero external
// dependencies. A snapshot is a point-in-time capture of one execution
// run, used for audit and post-mortem diagnosis; the scheduler never
// reads snapshots back to make decisions.
package snapshot

import (
	"time"
)

// Snapshot captures one run's per-node statuses and settled results.
type Snapshot struct {
	ID            string                 `json:"id" msgpack:"id"`
	ExecutionID   string                 `json:"execution_id" msgpack:"execution_id"`
	GraphID       string                 `json:"graph_id" msgpack:"graph_id"`
	Status        string                 `json:"status" msgpack:"status"`
	NodeStatuses  map[string]string      `json:"node_statuses" msgpack:"node_statuses"`
	Results       map[string]interface{} `json:"results,omitempty" msgpack:"results"`
	ExecutionPath []string               `json:"execution_path,omitempty" msgpack:"execution_path"`
	Timestamp     time.Time              `json:"timestamp" msgpack:"timestamp"`
	Version       string                 `json:"version" msgpack:"version"`
}

// Validate ensures snapshot integrity.
func (s *Snapshot) Validate() error {
	if s.ID == "" {
		return ErrInvalidSnapshotID
	}
	if s.ExecutionID == "" {
		return ErrInvalidExecutionID
	}
	if s.GraphID == "" {
		return ErrInvalidGraphID
	}
	if s.NodeStatuses == nil {
		return ErrNilNodeStatuses
	}
	return nil
}
