// Package memory provides an in-memory snapshot saver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/graphrun/graphrun/internal/core/snapshot"
	imetrics "github.com/graphrun/graphrun/internal/infrastructure/metrics"
)

// SnapshotSaver implements snapshot.Saver with an in-process map.
type SnapshotSaver struct {
	mu        sync.RWMutex
	snapshots map[string]*snapshot.Snapshot
}

// NewSnapshotSaver creates an empty saver.
func NewSnapshotSaver() *SnapshotSaver {
	return &SnapshotSaver{
		snapshots: make(map[string]*snapshot.Snapshot),
	}
}

// Save stores a snapshot after validating it.
func (s *SnapshotSaver) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	imetrics.SnapshotSaved("memory")
	return nil
}

// Load retrieves a snapshot by id.
func (s *SnapshotSaver) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", snapshot.ErrSnapshotNotFound, id)
	}
	return snap, nil
}

// List returns all snapshots of an execution, newest first.
func (s *SnapshotSaver) List(ctx context.Context, executionID string) ([]*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*snapshot.Snapshot
	for _, snap := range s.snapshots {
		if snap.ExecutionID == executionID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// Delete removes a snapshot by id.
func (s *SnapshotSaver) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return fmt.Errorf("%w: %s", snapshot.ErrSnapshotNotFound, id)
	}
	delete(s.snapshots, id)
	return nil
}
