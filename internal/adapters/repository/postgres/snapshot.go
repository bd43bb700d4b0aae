package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graphrun/graphrun/internal/core/snapshot"
	imetrics "github.com/graphrun/graphrun/internal/infrastructure/metrics"
	"github.com/graphrun/graphrun/pkg/serialization"
)

// SnapshotSaver implements snapshot.Saver for PostgreSQL.
type SnapshotSaver struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
	tableName  string
}

// NewSnapshotSaver creates a PostgreSQL snapshot saver backed by pool.
func NewSnapshotSaver(pool *pgxpool.Pool, serializer *serialization.Serializer) *SnapshotSaver {
	return &SnapshotSaver{
		pool:       pool,
		serializer: serializer,
		tableName:  "run_snapshots",
	}
}

// Save stores a snapshot, replacing any existing row with the same id.
func (s *SnapshotSaver) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return snapshot.ErrInvalidSnapshotID
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	results, err := s.serializer.Marshal(snap.Results)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot results: %w", err)
	}

	statuses, err := json.Marshal(snap.NodeStatuses)
	if err != nil {
		return fmt.Errorf("failed to serialize node statuses: %w", err)
	}

	path, err := json.Marshal(snap.ExecutionPath)
	if err != nil {
		return fmt.Errorf("failed to serialize execution path: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, execution_id, graph_id, status, node_statuses, results, execution_path, timestamp, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			node_statuses = EXCLUDED.node_statuses,
			results = EXCLUDED.results,
			execution_path = EXCLUDED.execution_path,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		snap.ID, snap.ExecutionID, snap.GraphID, snap.Status,
		statuses, results, path, snap.Timestamp, snap.Version)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	imetrics.SnapshotSaved("postgres")
	return nil
}

// Load retrieves a snapshot by id.
func (s *SnapshotSaver) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	if id == "" {
		return nil, snapshot.ErrInvalidSnapshotID
	}

	query := fmt.Sprintf(`
		SELECT id, execution_id, graph_id, status, node_statuses, results, execution_path, timestamp, version
		FROM %s
		WHERE id = $1
	`, s.tableName)

	snap, err := s.scanRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, snapshot.ErrSnapshotNotFound
		}
		return nil, err
	}
	return snap, nil
}

// List returns all snapshots for an execution, newest first.
func (s *SnapshotSaver) List(ctx context.Context, executionID string) ([]*snapshot.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT id, execution_id, graph_id, status, node_statuses, results, execution_path, timestamp, version
		FROM %s
		WHERE execution_id = $1
		ORDER BY timestamp DESC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*snapshot.Snapshot
	for rows.Next() {
		snap, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Delete removes a snapshot by id.
func (s *SnapshotSaver) Delete(ctx context.Context, id string) error {
	if id == "" {
		return snapshot.ErrInvalidSnapshotID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return snapshot.ErrSnapshotNotFound
	}
	return nil
}

// CreateTables creates the snapshot table and its indexes.
func (s *SnapshotSaver) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			execution_id VARCHAR(255) NOT NULL,
			graph_id VARCHAR(255) NOT NULL,
			status VARCHAR(50) NOT NULL,
			node_statuses JSONB NOT NULL,
			results BYTEA,
			execution_path JSONB,
			timestamp TIMESTAMP NOT NULL DEFAULT NOW(),
			version VARCHAR(50) NOT NULL DEFAULT '1.0'
		);

		CREATE INDEX IF NOT EXISTS idx_%s_execution_id ON %s (execution_id);
		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id);
		CREATE INDEX IF NOT EXISTS idx_%s_timestamp ON %s (timestamp);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *SnapshotSaver) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *SnapshotSaver) scanRow(row pgx.Row) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	var statuses, results, path []byte

	err := row.Scan(
		&snap.ID, &snap.ExecutionID, &snap.GraphID, &snap.Status,
		&statuses, &results, &path, &snap.Timestamp, &snap.Version,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
	}

	if err := json.Unmarshal(statuses, &snap.NodeStatuses); err != nil {
		return nil, fmt.Errorf("failed to deserialize node statuses: %w", err)
	}
	if len(results) > 0 {
		snap.Results = make(map[string]interface{})
		if err := s.serializer.Unmarshal(results, &snap.Results); err != nil {
			return nil, fmt.Errorf("failed to deserialize snapshot results: %w", err)
		}
	}
	if len(path) > 0 {
		if err := json.Unmarshal(path, &snap.ExecutionPath); err != nil {
			return nil, fmt.Errorf("failed to deserialize execution path: %w", err)
		}
	}
	return &snap, nil
}
