package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	simulation "railfleet-sim/internal/simulation/domain"
	wagon "railfleet-sim/internal/wagon/domain"
)

func TestRunRepositoryPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}

	engine, err := simulation.NewEngine(simulation.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	end := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	w, err := wagon.NewWagon("WGN-40001", wagon.WagonType{Name: "Boxcar", RateMultiplier: 1},
		wagon.Dimensions{CapacityTons: 50, LengthM: 15, WidthM: 3, HeightM: 4}, "Op", "Owner",
		end.AddDate(-15, 0, 0), end.AddDate(-3, 0, 0))
	if err != nil {
		t.Fatalf("wagon: %v", err)
	}
	result, err := engine.Simulate(w, end, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	run := simulation.Run{
		ID:        uuid.NewString(),
		Seed:      1,
		CreatedAt: end,
		Step:      24 * time.Hour,
		Entries:   []simulation.RunEntry{{Wagon: w, Result: result}},
	}

	repo := NewRunRepository(db)
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	records, err := repo.ListFailures(ctx, run.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != len(result.Failures()) {
		t.Fatalf("records=%d failures=%d", len(records), len(result.Failures()))
	}
	for i, rec := range records {
		want := result.Failures()[i]
		if !rec.Start.Equal(want.Start) || rec.Downtime != want.Downtime || rec.Cause != want.Cause {
			t.Fatalf("record %d=%+v want %+v", i, rec, want)
		}
	}

	if _, err := repo.ListFailures(ctx, uuid.NewString()); !errors.Is(err, simulation.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
