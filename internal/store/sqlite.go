package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS custom_references (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	lat         REAL NOT NULL,
	lng         REAL NOT NULL,
	enabled     INTEGER NOT NULL DEFAULT 1,
	max_minutes REAL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reference_times (
	ref_id     TEXT PRIMARY KEY REFERENCES custom_references(id) ON DELETE CASCADE,
	drive      TEXT NOT NULL,
	pt         TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id         TEXT PRIMARY KEY,
	params     TEXT NOT NULL,
	ref_ids    TEXT NOT NULL,
	summary    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_custom_references_enabled ON custom_references(enabled);
CREATE INDEX IF NOT EXISTS idx_score_snapshots_created_at ON score_snapshots(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateReference(ctx context.Context, ref model.Reference) (*model.Reference, error) {
	if ref.ID == "" {
		ref.ID = uuid.New().String()
	}
	ref.Custom = true

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO custom_references (id, name, lat, lng, enabled, max_minutes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ref.ID, ref.Name, ref.Lat, ref.Lng, boolToInt(ref.Enabled), ref.MaxMinutes, time.Now().UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert reference")
	}
	return &ref, nil
}

func (s *SQLiteStore) GetReference(ctx context.Context, id string) (*model.Reference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, lat, lng, enabled, max_minutes FROM custom_references WHERE id = ?`,
		id,
	)
	return scanReference(row)
}

func (s *SQLiteStore) ListReferences(ctx context.Context) ([]model.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, enabled, max_minutes FROM custom_references ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list references")
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		r, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *r)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: list references iterate")
}

func (s *SQLiteStore) SetReferenceEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE custom_references SET enabled = ? WHERE id = ?`,
		boolToInt(enabled), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update reference %s", id)
	}
	return checkRowsAffected(res, "reference", id)
}

func (s *SQLiteStore) DeleteReference(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM custom_references WHERE id = ?`,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete reference %s", id)
	}
	return checkRowsAffected(res, "reference", id)
}

func (s *SQLiteStore) SetReferenceTimes(ctx context.Context, refID string, drive, pt map[string]float64) error {
	driveJSON, err := json.Marshal(drive)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal drive times")
	}
	ptJSON, err := json.Marshal(pt)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pt times")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reference_times (ref_id, drive, pt, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (ref_id) DO UPDATE SET drive = excluded.drive, pt = excluded.pt, updated_at = excluded.updated_at`,
		refID, string(driveJSON), string(ptJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set reference times %s", refID)
}

func (s *SQLiteStore) GetReferenceTimes(ctx context.Context, refID string) (map[string]float64, map[string]float64, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT drive, pt FROM reference_times WHERE ref_id = ?`,
		refID,
	)

	var driveJSON, ptJSON string
	err := row.Scan(&driveJSON, &ptJSON)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: get reference times")
	}

	var drive, pt map[string]float64
	if err := json.Unmarshal([]byte(driveJSON), &drive); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: unmarshal drive times")
	}
	if err := json.Unmarshal([]byte(ptJSON), &pt); err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: unmarshal pt times")
	}
	return drive, pt, nil
}

func (s *SQLiteStore) CreateSnapshot(ctx context.Context, snap model.Snapshot) (*model.Snapshot, error) {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	snap.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(snap.Params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal params")
	}
	refsJSON, err := json.Marshal(snap.RefIDs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal ref ids")
	}
	summaryJSON, err := json.Marshal(snap.Summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_snapshots (id, params, ref_ids, summary, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, string(paramsJSON), string(refsJSON), string(summaryJSON), snap.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert snapshot")
	}
	return &snap, nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, params, ref_ids, summary, created_at FROM score_snapshots WHERE id = ?`,
		id,
	)
	return scanSnapshot(row)
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error) {
	query := `SELECT id, params, ref_ids, summary, created_at FROM score_snapshots ORDER BY created_at DESC`
	var args []any

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *sn)
	}
	return snaps, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReference(row scannable) (*model.Reference, error) {
	var r model.Reference
	var enabled int
	var maxMinutes sql.NullFloat64

	err := row.Scan(&r.ID, &r.Name, &r.Lat, &r.Lng, &enabled, &maxMinutes)
	if err == sql.ErrNoRows {
		return nil, eris.New("reference not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan reference")
	}

	r.Enabled = enabled != 0
	r.Custom = true
	if maxMinutes.Valid {
		r.MaxMinutes = &maxMinutes.Float64
	}
	return &r, nil
}

func scanSnapshot(row scannable) (*model.Snapshot, error) {
	var sn model.Snapshot
	var paramsJSON, refsJSON, summaryJSON string

	err := row.Scan(&sn.ID, &paramsJSON, &refsJSON, &summaryJSON, &sn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("snapshot not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan snapshot")
	}

	if err := json.Unmarshal([]byte(paramsJSON), &sn.Params); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal params")
	}
	if err := json.Unmarshal([]byte(refsJSON), &sn.RefIDs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal ref ids")
	}
	if err := json.Unmarshal([]byte(summaryJSON), &sn.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	return &sn, nil
}
