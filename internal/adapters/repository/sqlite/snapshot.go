package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/graphrun/graphrun/internal/core/snapshot"
	imetrics "github.com/graphrun/graphrun/internal/infrastructure/metrics"
	"github.com/graphrun/graphrun/pkg/serialization"
)

// SnapshotSaver implements snapshot.Saver for SQLite.
type SnapshotSaver struct {
	db         *sql.DB
	serializer *serialization.Serializer
	tableName  string
}

// NewSnapshotSaver creates a SQLite snapshot saver backed by db.
func NewSnapshotSaver(db *sql.DB, serializer *serialization.Serializer) *SnapshotSaver {
	return &SnapshotSaver{
		db:         db,
		serializer: serializer,
		tableName:  "run_snapshots",
	}
}

// WithTableName overrides the default table name. Only alphanumeric and
// underscore are permitted to prevent SQL injection via identifiers.
func (s *SnapshotSaver) WithTableName(name string) *SnapshotSaver {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
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
		INSERT OR REPLACE INTO %s (id, execution_id, graph_id, status, node_statuses, results, execution_path, timestamp, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		snap.ID, snap.ExecutionID, snap.GraphID, snap.Status,
		string(statuses), results, string(path), snap.Timestamp.Unix(), snap.Version)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	imetrics.SnapshotSaved("sqlite")
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
		WHERE id = ?
	`, s.tableName)

	snap, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
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
		WHERE execution_id = ?
		ORDER BY timestamp DESC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*snapshot.Snapshot
	for rows.Next() {
		snap, err := s.scan(rows)
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

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return snapshot.ErrSnapshotNotFound
	}
	return nil
}

// CreateTables creates the snapshot table and its indexes.
func (s *SnapshotSaver) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			execution_id TEXT NOT NULL,
			graph_id TEXT NOT NULL,
			status TEXT NOT NULL,
			node_statuses TEXT NOT NULL,
			results BLOB,
			execution_path TEXT,
			timestamp INTEGER NOT NULL,
			version TEXT NOT NULL DEFAULT '1.0'
		);

		CREATE INDEX IF NOT EXISTS idx_%s_execution_id ON %s (execution_id);
		CREATE INDEX IF NOT EXISTS idx_%s_graph_id ON %s (graph_id);
		CREATE INDEX IF NOT EXISTS idx_%s_timestamp ON %s (timestamp);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SnapshotSaver) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SnapshotSaver) scan(row rowScanner) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	var statuses, path string
	var results []byte
	var timestamp int64

	err := row.Scan(
		&snap.ID, &snap.ExecutionID, &snap.GraphID, &snap.Status,
		&statuses, &results, &path, &timestamp, &snap.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
	}

	snap.Timestamp = time.Unix(timestamp, 0)

	if err := json.Unmarshal([]byte(statuses), &snap.NodeStatuses); err != nil {
		return nil, fmt.Errorf("failed to deserialize node statuses: %w", err)
	}
	if len(results) > 0 {
		snap.Results = make(map[string]interface{})
		if err := s.serializer.Unmarshal(results, &snap.Results); err != nil {
			return nil, fmt.Errorf("failed to deserialize snapshot results: %w", err)
		}
	}
	if path != "" {
		if err := json.Unmarshal([]byte(path), &snap.ExecutionPath); err != nil {
			return nil, fmt.Errorf("failed to deserialize execution path: %w", err)
		}
	}
	return &snap, nil
}
