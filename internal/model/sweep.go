package model

import "time"

// SweepStatus is the lifecycle state of an enrichment sweep.
type SweepStatus string

const (
	SweepStatusRunning  SweepStatus = "running"
	SweepStatusComplete SweepStatus = "complete"
	SweepStatusFailed   SweepStatus = "failed"
)

// Sweep is one complete pass of the orchestrator over the current gap records.
// The missing counts are captured at classification time, before any
// enrichment writes.
type Sweep struct {
	ID             string
	Status         SweepStatus
	Targets        int
	MissingMain    int
	MissingGallery int
	MissingCoords  int
	ReportPath     string
	StartedAt      time.Time
	FinishedAt     *time.Time
}
