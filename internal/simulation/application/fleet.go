package application

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"railfleet-sim/internal/dataset"
	simulation "railfleet-sim/internal/simulation/domain"
	simmetrics "railfleet-sim/internal/simulation/metrics"
	wagon "railfleet-sim/internal/wagon/domain"
)

// ProviderFactory returns a wagon attribute provider seeded for one run.
type ProviderFactory func(seed uint64) wagon.Provider

// FleetRunner generates a fleet and simulates every wagon on a bounded worker pool.
type FleetRunner struct {
	catalog    *wagon.Catalog
	policy     wagon.DatePolicy
	providers  ProviderFactory
	engine     *simulation.Engine
	clock      wagon.Clock
	workers    int
	futureDays int
	logger     *log.Logger
	metrics    *simmetrics.Metrics
	newID      func() string
}

// FleetOption configures FleetRunner.
type FleetOption func(*FleetRunner)

// WithFleetLogger sets the runner logger.
func WithFleetLogger(logger *log.Logger) FleetOption {
	return func(r *FleetRunner) {
		r.logger = logger
	}
}

// WithFleetMetrics sets the metrics bundle.
func WithFleetMetrics(m *simmetrics.Metrics) FleetOption {
	return func(r *FleetRunner) {
		r.metrics = m
	}
}

// WithClock overrides the wall clock.
func WithClock(clock wagon.Clock) FleetOption {
	return func(r *FleetRunner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithWorkers bounds the number of concurrently simulated wagons.
func WithWorkers(workers int) FleetOption {
	return func(r *FleetRunner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithFutureDays sets the historic/future split distance from the simulation end.
func WithFutureDays(days int) FleetOption {
	return func(r *FleetRunner) {
		if days >= 0 {
			r.futureDays = days
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(newID func() string) FleetOption {
	return func(r *FleetRunner) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// NewFleetRunner constructs a runner.
func NewFleetRunner(catalog *wagon.Catalog, policy wagon.DatePolicy, providers ProviderFactory, engine *simulation.Engine, opts ...FleetOption) (*FleetRunner, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, wagon.ErrEmptyCatalog
	}
	if providers == nil {
		return nil, wagon.ErrNilProvider
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidConfig)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	r := &FleetRunner{
		catalog:    catalog,
		policy:     policy,
		providers:  providers,
		engine:     engine,
		clock:      wagon.SystemClock{},
		workers:    1,
		futureDays: 30,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run generates count wagons from seed and simulates them.
// Output depends only on seed, count, configuration and the clock.
func (r *FleetRunner) Run(ctx context.Context, count int, seed uint64) (*Fleet, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFleetSize, count)
	}
	started := time.Now()
	runID := r.newID()
	fleet, err := r.run(ctx, runID, count, seed)
	status := "success"
	if err != nil {
		status = "error"
	}
	if r.metrics != nil {
		r.metrics.RunsTotal.WithLabelValues(status).Inc()
		r.metrics.RunDuration.Observe(time.Since(started).Seconds())
		if err == nil {
			r.metrics.FleetSize.Set(float64(count))
		}
	}
	if err != nil {
		r.logf("event=fleet_run_failed run_id=%s seed=%d wagons=%d err=%v", runID, seed, count, err)
		return nil, err
	}
	r.logf("event=fleet_run_completed run_id=%s seed=%d wagons=%d failures=%d duration_ms=%d",
		runID, seed, count, fleet.FailureCount(), time.Since(started).Milliseconds())
	return fleet, nil
}

func (r *FleetRunner) run(ctx context.Context, runID string, count int, seed uint64) (*Fleet, error) {
	generator, err := wagon.NewGenerator(r.catalog, r.providers(seed), r.policy, r.clock)
	if err != nil {
		return nil, err
	}
	now := r.clock.Now().UTC()
	step := r.engine.Config().Step
	end := now.Truncate(step)

	genRng := rand.New(rand.NewPCG(seed, 0))
	wagons := make([]wagon.Wagon, count)
	for i := range wagons {
		w, err := generator.Generate(genRng)
		if err != nil {
			return nil, fmt.Errorf("generate wagon %d: %w", i, err)
		}
		wagons[i] = w
	}

	results := make([]*simulation.Result, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range wagons {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wagonStart := time.Now()
			rng := rand.New(rand.NewPCG(seed, uint64(i)+1))
			result, err := r.engine.Simulate(wagons[i], end, rng)
			if err != nil {
				return err
			}
			results[i] = result
			r.observeWagon(runID, result, time.Since(wagonStart))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]simulation.RunEntry, count)
	for i := range wagons {
		entries[i] = simulation.RunEntry{Wagon: wagons[i], Result: results[i]}
	}
	return &Fleet{
		RunID:     runID,
		Seed:      seed,
		CreatedAt: now,
		End:       end,
		Cutoff:    end.AddDate(0, 0, -r.futureDays),
		Step:      step,
		Entries:   entries,
	}, nil
}

func (r *FleetRunner) observeWagon(runID string, result *simulation.Result, elapsed time.Duration) {
	failures := result.Failures()
	frames := len(result.Frames())
	if r.metrics != nil {
		r.metrics.WagonsSimulated.Inc()
		r.metrics.WagonDuration.Observe(elapsed.Seconds())
		r.metrics.FramesTotal.Add(float64(frames))
		for _, event := range failures {
			r.metrics.FailuresTotal.WithLabelValues(string(event.Component)).Inc()
		}
	}
	r.logf("event=wagon_simulated run_id=%s wagon_id=%s frames=%d failures=%d",
		runID, result.WagonID(), frames, len(failures))
}

func (r *FleetRunner) logf(format string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

// Fleet is the outcome of one fleet run.
type Fleet struct {
	RunID     string
	Seed      uint64
	CreatedAt time.Time
	End       time.Time
	// Cutoff splits historic failures (start at or before) from future ones.
	Cutoff  time.Time
	Step    time.Duration
	Entries []simulation.RunEntry
}

// Run converts the fleet into its persisted form.
func (f *Fleet) Run() simulation.Run {
	return simulation.Run{
		ID:        f.RunID,
		Seed:      f.Seed,
		CreatedAt: f.CreatedAt,
		Step:      f.Step,
		Entries:   f.Entries,
	}
}

// Wagons returns the fleet wagons in generation order.
func (f *Fleet) Wagons() []wagon.Wagon {
	out := make([]wagon.Wagon, len(f.Entries))
	for i, entry := range f.Entries {
		out[i] = entry.Wagon
	}
	return out
}

// FailureCount returns the number of failure events across the fleet.
func (f *Fleet) FailureCount() int {
	total := 0
	for _, entry := range f.Entries {
		total += len(entry.Result.Failures())
	}
	return total
}

// Failures returns every failure of the fleet.
func (f *Fleet) Failures() (*dataset.Table, error) {
	return f.failureTable(func(r *simulation.Result) []simulation.FailureEvent {
		return r.Failures()
	})
}

// HistoricFailures returns failures starting at or before the cutoff.
func (f *Fleet) HistoricFailures() (*dataset.Table, error) {
	return f.failureTable(func(r *simulation.Result) []simulation.FailureEvent {
		historic, _ := r.Partition(f.Cutoff)
		return historic
	})
}

// FutureFailures returns failures starting after the cutoff.
func (f *Fleet) FutureFailures() (*dataset.Table, error) {
	return f.failureTable(func(r *simulation.Result) []simulation.FailureEvent {
		_, future := r.Partition(f.Cutoff)
		return future
	})
}

func (f *Fleet) failureTable(pick func(*simulation.Result) []simulation.FailureEvent) (*dataset.Table, error) {
	var records []simulation.FailureRecord
	for _, entry := range f.Entries {
		records = append(records, entry.Result.Records(pick(entry.Result))...)
	}
	return simulation.NewFailureTable(records...)
}

// TrainingData concatenates labelled frames of every wagon. With historicOnly
// only frames strictly before the cutoff are kept.
func (f *Fleet) TrainingData(mode simulation.LabelMode, historicOnly bool) (*dataset.Table, error) {
	var cutoff time.Time
	if historicOnly {
		cutoff = f.Cutoff
	}
	tables := make([]*dataset.Table, 0, len(f.Entries))
	for _, entry := range f.Entries {
		table, err := entry.Result.TrainingTable(mode, cutoff)
		if err != nil {
			return nil, fmt.Errorf("wagon %s: %w", entry.Wagon.ID, err)
		}
		tables = append(tables, table)
	}
	return dataset.Concat(simulation.TrainingSchema, tables...)
}

// Metadata returns the wagon metadata table.
func (f *Fleet) Metadata() (*dataset.Table, error) {
	return wagon.MetadataTable(f.Wagons()...)
}
