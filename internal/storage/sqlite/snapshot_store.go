package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/pmesh/internal/mesh"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const snapshotColumns = `
	snapshot_row_id, snapshot_id, mesh_key, created_unix_nanos, reason,
	left_bound, bottom_bound, right_bound, top_bound, width, height,
	interpolator, source_projection, dest_projection, valid_nodes, grid_blob`

// InsertSnapshot stores a snapshot and returns its row id.
// If SnapshotID is empty a new UUID is generated; a zero CreatedUnixNanos
// is set to the current time.
func (s *Store) InsertSnapshot(snap *mesh.Snapshot) (int64, error) {
	if snap == nil {
		return 0, fmt.Errorf("insert snapshot: nil snapshot")
	}
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	if snap.CreatedUnixNanos == 0 {
		snap.CreatedUnixNanos = s.clock.Now().UnixNano()
	}

	query := `
		INSERT INTO mesh_snapshots (
			snapshot_id, mesh_key, created_unix_nanos, reason,
			left_bound, bottom_bound, right_bound, top_bound, width, height,
			interpolator, source_projection, dest_projection, valid_nodes, grid_blob
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.Exec(query,
		snap.SnapshotID,
		snap.MeshKey,
		snap.CreatedUnixNanos,
		nullString(snap.Reason),
		snap.Left,
		snap.Bottom,
		snap.Right,
		snap.Top,
		snap.Width,
		snap.Height,
		snap.Interpolator,
		snap.SourceProjection,
		snap.DestProjection,
		snap.ValidNodes,
		snap.GridBlob,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert snapshot id: %w", err)
	}
	snap.RowID = &id
	return id, nil
}

// GetSnapshot returns the snapshot with the given snapshot id.
func (s *Store) GetSnapshot(snapshotID string) (*mesh.Snapshot, error) {
	row := s.db.QueryRow(`SELECT `+snapshotColumns+` FROM mesh_snapshots WHERE snapshot_id = ?`, snapshotID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the newest snapshot for a mesh key.
func (s *Store) LatestSnapshot(meshKey string) (*mesh.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM mesh_snapshots
		WHERE mesh_key = ?
		ORDER BY created_unix_nanos DESC, snapshot_row_id DESC
		LIMIT 1`
	snap, err := scanSnapshot(s.db.QueryRow(query, meshKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: mesh key %s", ErrSnapshotNotFound, meshKey)
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns up to limit snapshots, newest first. Grid blobs are
// not loaded. A limit of zero or less returns every snapshot.
func (s *Store) ListSnapshots(limit int) ([]*mesh.Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT snapshot_row_id, snapshot_id, mesh_key, created_unix_nanos, reason,
		       left_bound, bottom_bound, right_bound, top_bound, width, height,
		       interpolator, source_projection, dest_projection, valid_nodes
		FROM mesh_snapshots
		ORDER BY created_unix_nanos DESC, snapshot_row_id DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*mesh.Snapshot
	for rows.Next() {
		snap := &mesh.Snapshot{}
		var rowID int64
		var reason sql.NullString
		err := rows.Scan(
			&rowID, &snap.SnapshotID, &snap.MeshKey, &snap.CreatedUnixNanos, &reason,
			&snap.Left, &snap.Bottom, &snap.Right, &snap.Top, &snap.Width, &snap.Height,
			&snap.Interpolator, &snap.SourceProjection, &snap.DestProjection, &snap.ValidNodes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.RowID = &rowID
		if reason.Valid {
			snap.Reason = reason.String
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DeleteSnapshot removes a snapshot by snapshot id.
func (s *Store) DeleteSnapshot(snapshotID string) error {
	result, err := s.db.Exec("DELETE FROM mesh_snapshots WHERE snapshot_id = ?", snapshotID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	return nil
}

// PruneSnapshots keeps the newest keep snapshots for meshKey and deletes the
// rest. It returns the number of rows removed.
func (s *Store) PruneSnapshots(meshKey string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.db.Exec(`
		DELETE FROM mesh_snapshots
		WHERE mesh_key = ?
		  AND snapshot_row_id NOT IN (
			SELECT snapshot_row_id FROM mesh_snapshots
			WHERE mesh_key = ?
			ORDER BY created_unix_nanos DESC, snapshot_row_id DESC
			LIMIT ?
		  )
	`, meshKey, meshKey, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

func scanSnapshot(row *sql.Row) (*mesh.Snapshot, error) {
	snap := &mesh.Snapshot{}
	var rowID int64
	var reason sql.NullString
	err := row.Scan(
		&rowID, &snap.SnapshotID, &snap.MeshKey, &snap.CreatedUnixNanos, &reason,
		&snap.Left, &snap.Bottom, &snap.Right, &snap.Top, &snap.Width, &snap.Height,
		&snap.Interpolator, &snap.SourceProjection, &snap.DestProjection, &snap.ValidNodes,
		&snap.GridBlob,
	)
	if err != nil {
		return nil, err
	}
	snap.RowID = &rowID
	if reason.Valid {
		snap.Reason = reason.String
	}
	return snap, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
