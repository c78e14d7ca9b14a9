// Package store persists heritage records and sweep bookkeeping in SQLite.
package store

import (
	"context"

	"github.com/heritage-atlas/heritage-cli/internal/model"
)

// GapRecord pairs a record with its gap flags as classified at scan time.
type GapRecord struct {
	Record model.HeritageRecord
	Gaps   model.GapFlags
}

// GapCounts aggregates how many records are missing each tracked field.
type GapCounts struct {
	MainImage   int
	Gallery     int
	Coordinates int
}

// Store defines the persistence interface for the catalog and the
// enrichment pipeline.
type Store interface {
	// Records
	Insert(ctx context.Context, rec *model.HeritageRecord) error
	Save(ctx context.Context, rec *model.HeritageRecord) error
	Get(ctx context.Context, id int64) (*model.HeritageRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error

	// Gap scan
	FindGapRecords(ctx context.Context) ([]GapRecord, error)
	CountGaps(ctx context.Context) (GapCounts, error)

	// Sweeps
	CreateSweep(ctx context.Context, sweep *model.Sweep) error
	CompleteSweep(ctx context.Context, sweep *model.Sweep) error
	LastSweep(ctx context.Context) (*model.Sweep, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
