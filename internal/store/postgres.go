package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS custom_references (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name        TEXT NOT NULL,
	lat         DOUBLE PRECISION NOT NULL,
	lng         DOUBLE PRECISION NOT NULL,
	enabled     BOOLEAN NOT NULL DEFAULT true,
	max_minutes DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reference_times (
	ref_id     TEXT PRIMARY KEY REFERENCES custom_references(id) ON DELETE CASCADE,
	drive      JSONB NOT NULL,
	pt         JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	params     JSONB NOT NULL,
	ref_ids    JSONB NOT NULL,
	summary    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_custom_references_enabled ON custom_references(enabled);
CREATE INDEX IF NOT EXISTS idx_score_snapshots_created_at ON score_snapshots(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateReference(ctx context.Context, ref model.Reference) (*model.Reference, error) {
	if ref.ID == "" {
		ref.ID = uuid.New().String()
	}
	ref.Custom = true

	_, err := s.pool.Exec(ctx,
		`INSERT INTO custom_references (id, name, lat, lng, enabled, max_minutes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ref.ID, ref.Name, ref.Lat, ref.Lng, ref.Enabled, ref.MaxMinutes, time.Now().UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert reference")
	}
	return &ref, nil
}

func (s *PostgresStore) GetReference(ctx context.Context, id string) (*model.Reference, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, lat, lng, enabled, max_minutes FROM custom_references WHERE id = $1`,
		id,
	)

	var r model.Reference
	err := row.Scan(&r.ID, &r.Name, &r.Lat, &r.Lng, &r.Enabled, &r.MaxMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("reference not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get reference")
	}
	r.Custom = true
	return &r, nil
}

func (s *PostgresStore) ListReferences(ctx context.Context) ([]model.Reference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, lat, lng, enabled, max_minutes FROM custom_references ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list references")
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var r model.Reference
		if err := rows.Scan(&r.ID, &r.Name, &r.Lat, &r.Lng, &r.Enabled, &r.MaxMinutes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan reference")
		}
		r.Custom = true
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "postgres: list references iterate")
}

func (s *PostgresStore) SetReferenceEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE custom_references SET enabled = $1 WHERE id = $2`,
		enabled, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update reference %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("reference not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteReference(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM custom_references WHERE id = $1`,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete reference %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("reference not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetReferenceTimes(ctx context.Context, refID string, drive, pt map[string]float64) error {
	driveJSON, err := json.Marshal(drive)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal drive times")
	}
	ptJSON, err := json.Marshal(pt)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pt times")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reference_times (ref_id, drive, pt, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (ref_id) DO UPDATE SET drive = excluded.drive, pt = excluded.pt, updated_at = excluded.updated_at`,
		refID, driveJSON, ptJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set reference times %s", refID)
}

func (s *PostgresStore) GetReferenceTimes(ctx context.Context, refID string) (map[string]float64, map[string]float64, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT drive, pt FROM reference_times WHERE ref_id = $1`,
		refID,
	)

	var driveJSON, ptJSON []byte
	err := row.Scan(&driveJSON, &ptJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: get reference times")
	}

	var drive, pt map[string]float64
	if err := json.Unmarshal(driveJSON, &drive); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: unmarshal drive times")
	}
	if err := json.Unmarshal(ptJSON, &pt); err != nil {
		return nil, nil, eris.Wrap(err, "postgres: unmarshal pt times")
	}
	return drive, pt, nil
}

func (s *PostgresStore) CreateSnapshot(ctx context.Context, snap model.Snapshot) (*model.Snapshot, error) {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	snap.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(snap.Params)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal params")
	}
	refsJSON, err := json.Marshal(snap.RefIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal ref ids")
	}
	summaryJSON, err := json.Marshal(snap.Summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_snapshots (id, params, ref_ids, summary, created_at) VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, paramsJSON, refsJSON, summaryJSON, snap.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert snapshot")
	}
	return &snap, nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, params, ref_ids, summary, created_at FROM score_snapshots WHERE id = $1`,
		id,
	)
	sn, err := scanPostgresSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("snapshot not found: %s", id)
	}
	return sn, err
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, params, ref_ids, summary, created_at FROM score_snapshots ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		sn, err := scanPostgresSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *sn)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

func scanPostgresSnapshot(row pgx.Row) (*model.Snapshot, error) {
	var sn model.Snapshot
	var paramsJSON, refsJSON, summaryJSON []byte

	err := row.Scan(&sn.ID, &paramsJSON, &refsJSON, &summaryJSON, &sn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan snapshot")
	}

	if err := json.Unmarshal(paramsJSON, &sn.Params); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal params")
	}
	if err := json.Unmarshal(refsJSON, &sn.RefIDs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal ref ids")
	}
	if err := json.Unmarshal(summaryJSON, &sn.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	return &sn, nil
}
