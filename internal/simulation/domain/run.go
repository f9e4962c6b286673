package simulation

import (
	"context"
	"math"
	"time"

	wagon "railfleet-sim/internal/wagon/domain"
)

// MaxSeed is the largest seed a run repository stores in a signed 64-bit column.
const MaxSeed uint64 = math.MaxInt64

// Run is a persisted fleet simulation.
type Run struct {
	ID        string
	Seed      uint64
	CreatedAt time.Time
	Step      time.Duration
	Entries   []RunEntry
}

// RunEntry pairs a wagon with its simulation result.
type RunEntry struct {
	Wagon  wagon.Wagon
	Result *Result
}

// RunRepository persists fleet runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run Run) error
	// ListFailures returns the failure log of a run ordered by wagon then start.
	// Missing runs yield ErrRunNotFound.
	ListFailures(ctx context.Context, runID string) ([]FailureRecord, error)
}
