package sqlite

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	simulation "railfleet-sim/internal/simulation/domain"
	wagon "railfleet-sim/internal/wagon/domain"
)

func testRun(t *testing.T) simulation.Run {
	t.Helper()
	cfg := simulation.DefaultConfig()
	entries := simulation.DefaultHazards()
	for i := range entries {
		entries[i].BaseRate = 0.01
	}
	table, err := simulation.NewHazardTable(entries)
	if err != nil {
		t.Fatalf("hazards: %v", err)
	}
	cfg.Hazards = table
	engine, err := simulation.NewEngine(cfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	end := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	run := simulation.Run{ID: "run-sqlite", Seed: 7, CreatedAt: end, Step: cfg.Step}
	for i, id := range []string{"WGN-30001", "WGN-30002"} {
		w, err := wagon.NewWagon(id, wagon.WagonType{Name: "Gondola", RateMultiplier: 1},
			wagon.Dimensions{CapacityTons: 60, LengthM: 12, WidthM: 3, HeightM: 2.5}, "Op", "Owner",
			end.AddDate(-20, 0, 0), end.AddDate(-1, 0, 0))
		if err != nil {
			t.Fatalf("wagon: %v", err)
		}
		result, err := engine.Simulate(w, end, rand.New(rand.NewPCG(7, uint64(i)+1)))
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}
		run.Entries = append(run.Entries, simulation.RunEntry{Wagon: w, Result: result})
	}
	return run
}

func newTestRepo(t *testing.T) (*RunRepository, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := InitSchema(context.Background(), db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewRunRepository(db, WithFrames(true)), func() { _ = db.Close() }
}

func TestSaveAndListFailures(t *testing.T) {
	repo, closeDB := newTestRepo(t)
	defer closeDB()
	ctx := context.Background()
	run := testRun(t)

	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	// saving twice replaces rather than duplicates
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := repo.ListFailures(ctx, run.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var want []simulation.FailureRecord
	for _, entry := range run.Entries {
		want = append(want, entry.Result.Records(entry.Result.Failures())...)
	}
	if len(want) == 0 {
		t.Fatalf("expected failures in test run")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("records mismatch: got %d want %d", len(got), len(want))
	}

	var frames int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sim_sensor_frames WHERE run_id = ?`, run.ID).Scan(&frames); err != nil {
		t.Fatalf("count frames: %v", err)
	}
	wantFrames := len(run.Entries[0].Result.Frames()) + len(run.Entries[1].Result.Frames())
	if frames != wantFrames {
		t.Fatalf("frames=%d want %d", frames, wantFrames)
	}
}

func TestListFailuresUnknownRun(t *testing.T) {
	repo, closeDB := newTestRepo(t)
	defer closeDB()
	if _, err := repo.ListFailures(context.Background(), "missing"); !errors.Is(err, simulation.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveRunSeedRange(t *testing.T) {
	repo, closeDB := newTestRepo(t)
	defer closeDB()
	ctx := context.Background()

	run := simulation.Run{ID: "run-max", Seed: simulation.MaxSeed, CreatedAt: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), Step: 24 * time.Hour}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("save max seed: %v", err)
	}
	var stored int64
	if err := repo.db.QueryRowContext(ctx, `SELECT seed FROM sim_runs WHERE id = ?`, run.ID).Scan(&stored); err != nil {
		t.Fatalf("read seed: %v", err)
	}
	if uint64(stored) != simulation.MaxSeed {
		t.Fatalf("stored seed=%d", stored)
	}

	run.ID = "run-over"
	run.Seed = simulation.MaxSeed + 1
	if err := repo.SaveRun(ctx, run); !errors.Is(err, simulation.ErrSeedOutOfRange) {
		t.Fatalf("expected ErrSeedOutOfRange, got %v", err)
	}
}
