package memory

import (
	"context"
	"errors"
	"sync"

	simulation "railfleet-sim/internal/simulation/domain"
)

// RunRepository is an in-memory run store.
type RunRepository struct {
	mu       sync.RWMutex
	failures map[string][]simulation.FailureRecord
}

// NewRunRepository constructs a repository.
func NewRunRepository() *RunRepository {
	return &RunRepository{failures: make(map[string][]simulation.FailureRecord)}
}

// SaveRun stores the failure log of run (overwrites existing).
func (r *RunRepository) SaveRun(ctx context.Context, run simulation.Run) error {
	_ = ctx
	if run.ID == "" {
		return errors.New("memory run repo: empty run id")
	}
	records := make([]simulation.FailureRecord, 0)
	for _, entry := range run.Entries {
		if entry.Result == nil {
			continue
		}
		records = append(records, entry.Result.Records(entry.Result.Failures())...)
	}
	r.mu.Lock()
	r.failures[run.ID] = records
	r.mu.Unlock()
	return nil
}

// ListFailures returns a copy of the stored failure log.
func (r *RunRepository) ListFailures(ctx context.Context, runID string) ([]simulation.FailureRecord, error) {
	_ = ctx
	r.mu.RLock()
	records, ok := r.failures[runID]
	r.mu.RUnlock()
	if !ok {
		return nil, simulation.ErrRunNotFound
	}
	out := make([]simulation.FailureRecord, len(records))
	copy(out, records)
	return out, nil
}

var _ simulation.RunRepository = (*RunRepository)(nil)
