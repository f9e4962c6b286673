package memory

import (
	"context"
	"errors"
	"testing"

	simulation "railfleet-sim/internal/simulation/domain"
)

func TestRunRepositoryRoundTrip(t *testing.T) {
	repo := NewRunRepository()
	ctx := context.Background()

	if _, err := repo.ListFailures(ctx, "missing"); !errors.Is(err, simulation.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := repo.SaveRun(ctx, simulation.Run{}); err == nil {
		t.Fatalf("expected error for empty run id")
	}
	if err := repo.SaveRun(ctx, simulation.Run{ID: "run-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	records, err := repo.ListFailures(ctx, "run-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records=%d", len(records))
	}
}
