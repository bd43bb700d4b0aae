package snapshot

import "context"

// Saver persists run snapshots. Implementations live in
// internal/adapters/repository.
type Saver interface {
	// Save stores a snapshot.
	Save(ctx context.Context, s *Snapshot) error

	// Load retrieves a snapshot by id.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// List returns all snapshots recorded for an execution, newest first.
	List(ctx context.Context, executionID string) ([]*Snapshot, error)

	// Delete removes a snapshot by id.
	Delete(ctx context.Context, id string) error
}
