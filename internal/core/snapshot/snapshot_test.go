package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSnapshot() *Snapshot {
	return &Snapshot{
		ID:           "snap-1",
		ExecutionID:  "exec-1",
		GraphID:      "graph-1",
		Status:       "completed",
		NodeStatuses: map[string]string{"a": "completed"},
		Timestamp:    time.Now(),
		Version:      "1.0",
	}
}

func TestSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr error
	}{
		{
			name:   "valid snapshot",
			mutate: func(*Snapshot) {},
		},
		{
			name:    "missing id",
			mutate:  func(s *Snapshot) { s.ID = "" },
			wantErr: ErrInvalidSnapshotID,
		},
		{
			name:    "missing execution id",
			mutate:  func(s *Snapshot) { s.ExecutionID = "" },
			wantErr: ErrInvalidExecutionID,
		},
		{
			name:    "missing graph id",
			mutate:  func(s *Snapshot) { s.GraphID = "" },
			wantErr: ErrInvalidGraphID,
		},
		{
			name:    "nil node statuses",
			mutate:  func(s *Snapshot) { s.NodeStatuses = nil },
			wantErr: ErrNilNodeStatuses,
		},
		{
			name:   "empty node statuses are allowed",
			mutate: func(s *Snapshot) { s.NodeStatuses = map[string]string{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(snap)

			err := snap.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
