// Package snapshot defines domain-specific errors
package snapshot

import "errors"

var (
	ErrInvalidSnapshotID  = errors.New("invalid snapshot ID")
	ErrInvalidExecutionID = errors.New("invalid execution ID")
	ErrInvalidGraphID     = errors.New("invalid graph ID")
	ErrNilNodeStatuses    = errors.New("node statuses cannot be nil")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
)
