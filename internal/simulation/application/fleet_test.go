package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	simulation "railfleet-sim/internal/simulation/domain"
	simmetrics "railfleet-sim/internal/simulation/metrics"
	wagon "railfleet-sim/internal/wagon/domain"
	"railfleet-sim/internal/wagon/infrastructure/fake"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func fakeProviders(seed uint64) wagon.Provider {
	return fake.NewProvider(seed)
}

func newTestRunner(t *testing.T, opts ...FleetOption) *FleetRunner {
	t.Helper()
	cfg := DefaultConfig()
	catalog, err := cfg.WagonCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	engine, err := simulation.NewEngine(engineCfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	opts = append([]FleetOption{WithClock(fixedClock{now: testNow})}, opts...)
	runner, err := NewFleetRunner(catalog, cfg.Dates, fakeProviders, engine, opts...)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	return runner
}

func TestFleetRunIndependentOfWorkerCount(t *testing.T) {
	serial := newTestRunner(t, WithWorkers(1))
	parallel := newTestRunner(t, WithWorkers(8))

	a, err := serial.Run(context.Background(), 6, 77)
	if err != nil {
		t.Fatalf("serial run: %v", err)
	}
	b, err := parallel.Run(context.Background(), 6, 77)
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}
	if !reflect.DeepEqual(a.Wagons(), b.Wagons()) {
		t.Fatalf("wagons differ between worker counts")
	}
	for i := range a.Entries {
		if !reflect.DeepEqual(a.Entries[i].Result.Failures(), b.Entries[i].Result.Failures()) {
			t.Fatalf("wagon %d failures differ", i)
		}
		if !reflect.DeepEqual(a.Entries[i].Result.Frames(), b.Entries[i].Result.Frames()) {
			t.Fatalf("wagon %d frames differ", i)
		}
	}
	if a.RunID == b.RunID {
		t.Fatalf("run ids should be unique, both %s", a.RunID)
	}
}

func TestFleetRunWindowAndIDs(t *testing.T) {
	runner := newTestRunner(t, WithWorkers(3), WithFutureDays(30), WithRunIDs(func() string { return "run-1" }))
	fleet, err := runner.Run(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fleet.RunID != "run-1" || len(fleet.Entries) != 5 {
		t.Fatalf("fleet id=%s entries=%d", fleet.RunID, len(fleet.Entries))
	}
	wantEnd := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	if !fleet.End.Equal(wantEnd) || !fleet.Cutoff.Equal(wantEnd.AddDate(0, 0, -30)) {
		t.Fatalf("end=%s cutoff=%s", fleet.End, fleet.Cutoff)
	}
	seen := map[string]struct{}{}
	for _, entry := range fleet.Entries {
		if _, dup := seen[entry.Wagon.ID]; dup {
			t.Fatalf("duplicate wagon id %s", entry.Wagon.ID)
		}
		seen[entry.Wagon.ID] = struct{}{}
		frames := entry.Result.Frames()
		if !frames[0].Timestamp.Equal(entry.Wagon.SensorInstallDate) {
			t.Fatalf("wagon %s starts at %s, installed %s", entry.Wagon.ID, frames[0].Timestamp, entry.Wagon.SensorInstallDate)
		}
		if last := frames[len(frames)-1].Timestamp; !last.Equal(fleet.End) {
			t.Fatalf("wagon %s ends at %s, want %s", entry.Wagon.ID, last, fleet.End)
		}
	}
}

func TestFleetViews(t *testing.T) {
	runner := newTestRunner(t, WithWorkers(2))
	fleet, err := runner.Run(context.Background(), 4, 9)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	all, err := fleet.Failures()
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	historic, err := fleet.HistoricFailures()
	if err != nil {
		t.Fatalf("historic: %v", err)
	}
	future, err := fleet.FutureFailures()
	if err != nil {
		t.Fatalf("future: %v", err)
	}
	if historic.Len()+future.Len() != all.Len() || all.Len() != fleet.FailureCount() {
		t.Fatalf("historic %d + future %d != all %d", historic.Len(), future.Len(), all.Len())
	}
	if !future.Schema().Equal(simulation.FailureSchema) {
		t.Fatalf("future schema=%v", future.Schema().Names())
	}

	training, err := fleet.TrainingData(simulation.LabelOnset, false)
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	frames := 0
	for _, entry := range fleet.Entries {
		frames += len(entry.Result.Frames())
	}
	if training.Len() != frames {
		t.Fatalf("training rows=%d frames=%d", training.Len(), frames)
	}
	historicTraining, err := fleet.TrainingData(simulation.LabelOnset, true)
	if err != nil {
		t.Fatalf("historic training: %v", err)
	}
	if historicTraining.Len() >= training.Len() {
		t.Fatalf("historic training %d not shorter than %d", historicTraining.Len(), training.Len())
	}

	metadata, err := fleet.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if metadata.Len() != 4 {
		t.Fatalf("metadata rows=%d", metadata.Len())
	}
}

func TestFleetRunMetrics(t *testing.T) {
	m := simmetrics.New(prometheus.NewRegistry())
	runner := newTestRunner(t, WithFleetMetrics(m), WithWorkers(2))
	fleet, err := runner.Run(context.Background(), 3, 5)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := testutil.ToFloat64(m.WagonsSimulated); got != 3 {
		t.Fatalf("wagons simulated=%v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("runs=%v", got)
	}
	failures := 0.0
	for _, id := range []simulation.ComponentID{simulation.ComponentBrakes, simulation.ComponentAxle, simulation.ComponentBattery, simulation.ComponentCooling} {
		failures += testutil.ToFloat64(m.FailuresTotal.WithLabelValues(string(id)))
	}
	if int(failures) != fleet.FailureCount() {
		t.Fatalf("failure metric=%v count=%d", failures, fleet.FailureCount())
	}
}

func TestFleetRunRejectsNegativeCountAndCancelledContext(t *testing.T) {
	runner := newTestRunner(t)
	if _, err := runner.Run(context.Background(), -1, 1); !errors.Is(err, ErrInvalidFleetSize) {
		t.Fatalf("expected ErrInvalidFleetSize, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx, 3, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	empty, err := runner.Run(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("empty run: %v", err)
	}
	table, err := empty.Failures()
	if err != nil || table.Len() != 0 {
		t.Fatalf("empty fleet failures len=%d err=%v", table.Len(), err)
	}
}
