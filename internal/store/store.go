// Package store persists user-added reference locations, their synthesized
// travel times, and scoring run snapshots. Two backends are provided:
// SQLite for the single-binary default and Postgres for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// SnapshotFilter specifies criteria for listing snapshots.
type SnapshotFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the persistence interface.
type Store interface {
	// Custom references
	CreateReference(ctx context.Context, ref model.Reference) (*model.Reference, error)
	GetReference(ctx context.Context, id string) (*model.Reference, error)
	ListReferences(ctx context.Context) ([]model.Reference, error)
	SetReferenceEnabled(ctx context.Context, id string, enabled bool) error
	DeleteReference(ctx context.Context, id string) error

	// Synthesized travel times, keyed by area id
	SetReferenceTimes(ctx context.Context, refID string, drive, pt map[string]float64) error
	GetReferenceTimes(ctx context.Context, refID string) (drive, pt map[string]float64, err error)

	// Score snapshots
	CreateSnapshot(ctx context.Context, snap model.Snapshot) (*model.Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
