package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/core/snapshot"
)

const snapshotVersion = "1.0"

// SnapshotService captures finished or in-flight runs as snapshots and
// persists them through a snapshot.Saver.
type SnapshotService struct {
	saver  snapshot.Saver
	logger *slog.Logger
}

// NewSnapshotService creates a snapshot service. A nil logger falls
// back to slog.Default().
func NewSnapshotService(saver snapshot.Saver, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotService{saver: saver, logger: logger}
}

// CaptureResult persists a snapshot built from a settled run result.
func (s *SnapshotService) CaptureResult(ctx context.Context, result *dto.RunResult) (*snapshot.Snapshot, error) {
	if result == nil {
		return nil, fmt.Errorf("run result is nil")
	}

	statuses := make(map[string]string, len(result.Results))
	outputs := make(map[string]interface{}, len(result.Results))
	for nodeID, res := range result.Results {
		if res == nil {
			continue
		}
		if res.Success {
			statuses[nodeID] = string(dto.NodeStatusCompleted)
		} else {
			statuses[nodeID] = string(dto.NodeStatusFailed)
		}
		if res.Output != nil {
			outputs[nodeID] = res.Output
		}
	}

	snap := &snapshot.Snapshot{
		ID:            uuid.New().String(),
		ExecutionID:   result.ExecutionID,
		GraphID:       result.GraphID,
		Status:        string(result.Status),
		NodeStatuses:  statuses,
		Results:       outputs,
		ExecutionPath: append([]string(nil), result.ExecutionPath...),
		Timestamp:     time.Now(),
		Version:       snapshotVersion,
	}

	if err := s.saver.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to capture run snapshot: %w", err)
	}

	s.logger.Debug("run snapshot saved",
		"snapshot_id", snap.ID,
		"execution_id", snap.ExecutionID,
		"status", snap.Status)
	return snap, nil
}

// CaptureState persists a snapshot built from tracked live state, used
// for mid-run captures of paused executions.
func (s *SnapshotService) CaptureState(ctx context.Context, state *RunState, status dto.RunStatus) (*snapshot.Snapshot, error) {
	if state == nil {
		return nil, fmt.Errorf("run state is nil")
	}

	statuses := make(map[string]string, len(state.NodeStatuses))
	for nodeID, nodeStatus := range state.NodeStatuses {
		statuses[nodeID] = string(nodeStatus)
	}

	snap := &snapshot.Snapshot{
		ID:           uuid.New().String(),
		ExecutionID:  state.ExecutionID,
		GraphID:      state.GraphID,
		Status:       string(status),
		NodeStatuses: statuses,
		Timestamp:    time.Now(),
		Version:      snapshotVersion,
	}

	if err := s.saver.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to capture state snapshot: %w", err)
	}
	return snap, nil
}

// History returns the stored snapshots of an execution, newest first.
func (s *SnapshotService) History(ctx context.Context, executionID string) ([]*snapshot.Snapshot, error) {
	return s.saver.List(ctx, executionID)
}

// Prune deletes all snapshots of an execution.
func (s *SnapshotService) Prune(ctx context.Context, executionID string) error {
	snaps, err := s.saver.List(ctx, executionID)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if err := s.saver.Delete(ctx, snap.ID); err != nil {
			return err
		}
	}
	return nil
}
