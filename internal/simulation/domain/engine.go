package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	wagon "railfleet-sim/internal/wagon/domain"
)

// DurationRange is a closed interval of durations.
type DurationRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// DayRange is a closed interval of whole days.
type DayRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Config is the read-only engine configuration.
type Config struct {
	Hazards    *HazardTable
	Sensors    SensorProfile
	Step       time.Duration
	Repair     DurationRange
	InitialAge DayRange
}

// DefaultConfig returns daily steps, the default hazard table and sensor profile,
// 3h..24h repairs and 1..365 days of initial component age.
func DefaultConfig() Config {
	hazards, err := NewHazardTable(DefaultHazards())
	if err != nil {
		panic(err)
	}
	return Config{
		Hazards:    hazards,
		Sensors:    DefaultSensorProfile(),
		Step:       day,
		Repair:     DurationRange{Min: 3 * time.Hour, Max: 24 * time.Hour},
		InitialAge: DayRange{Min: 1, Max: 365},
	}
}

// Validate checks the configuration as a whole.
func (c Config) Validate() error {
	if c.Hazards == nil || len(c.Hazards.entries) == 0 {
		return ErrEmptyHazardTable
	}
	if err := ValidateStep(c.Step); err != nil {
		return err
	}
	if c.Repair.Min <= 0 || c.Repair.Max < c.Repair.Min {
		return fmt.Errorf("%w: %s..%s", ErrInvalidRepairRange, c.Repair.Min, c.Repair.Max)
	}
	if c.InitialAge.Min < 0 || c.InitialAge.Max < c.InitialAge.Min {
		return fmt.Errorf("%w: %d..%d days", ErrInvalidInitialAge, c.InitialAge.Min, c.InitialAge.Max)
	}
	return c.Sensors.Validate(c.Hazards)
}

// StepState is the per-step view handed to a trace callback.
type StepState struct {
	At         time.Time
	Failed     bool
	Components map[ComponentID]ComponentStatus
}

// Engine runs the per-wagon reliability simulation.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Simulate runs wagon w from its sensor installation date up to end.
// The run is fully determined by w, end, the configuration and rng.
func (e *Engine) Simulate(w wagon.Wagon, end time.Time, rng *rand.Rand) (*Result, error) {
	return e.SimulateTrace(w, end, rng, nil)
}

// SimulateTrace is Simulate with a callback invoked after each step's transitions.
func (e *Engine) SimulateTrace(w wagon.Wagon, end time.Time, rng *rand.Rand, trace func(StepState)) (*Result, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	if strings.TrimSpace(w.ID) == "" || w.SensorInstallDate.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWagon, w.ID)
	}
	multiplier := w.Type.RateMultiplier
	if multiplier == 0 {
		multiplier = 1
	}
	if multiplier < 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("%w: rate multiplier %v", ErrInvalidWagon, w.Type.RateMultiplier)
	}

	timeline, err := NewTimeline(w.SensorInstallDate, end, e.cfg.Step)
	if err != nil {
		return nil, fmt.Errorf("wagon %s: %w", w.ID, err)
	}
	stepDays := timeline.StepDays()

	order := e.cfg.Hazards.Components()
	states := make(map[ComponentID]*ComponentState, len(order))
	for _, id := range order {
		params, _ := e.cfg.Hazards.Params(id)
		params.BaseRate *= multiplier * stepDays
		ageDays := e.cfg.InitialAge.Min + rng.IntN(e.cfg.InitialAge.Max-e.cfg.InitialAge.Min+1)
		states[id] = &ComponentState{
			ID:              id,
			Params:          params,
			Status:          StatusHealthy,
			LastReplacement: timeline.Start.AddDate(0, 0, -ageDays),
		}
	}

	synth := newSynthesizer(e.cfg.Sensors, stepDays)
	steps := timeline.Len()
	frames := make([]SensorFrame, 0, steps)
	var failures []FailureEvent

	for i := 0; i < steps; i++ {
		t := timeline.At(i)

		for _, id := range order {
			c := states[id]
			if c.Failed() && !t.Before(c.RepairDue) {
				c.repair(t)
			}
		}

		for _, id := range order {
			c := states[id]
			if c.Failed() {
				continue
			}
			if rng.Float64() >= c.Params.Hazard(c.AgeDays(t)) {
				continue
			}
			event, err := c.fail(t, e.drawRepairDelay(rng))
			if err != nil {
				return nil, fmt.Errorf("wagon %s: %w", w.ID, err)
			}
			failures = append(failures, event)
		}

		failed := false
		for _, id := range order {
			if states[id].Failed() {
				failed = true
				break
			}
		}

		if trace != nil {
			snapshot := make(map[ComponentID]ComponentStatus, len(order))
			for _, id := range order {
				snapshot[id] = states[id].Status
			}
			trace(StepState{At: t, Failed: failed, Components: snapshot})
		}

		wear := func(id ComponentID) float64 {
			c, ok := states[id]
			if !ok {
				return 0
			}
			return c.AgeDays(t) / c.Params.Lifetime
		}
		frames = append(frames, synth.next(t, failed, wear, rng))
	}

	components := make([]ComponentSnapshot, 0, len(order))
	for _, id := range order {
		components = append(components, states[id].snapshot())
	}
	return &Result{
		wagonID:    w.ID,
		timeline:   timeline,
		frames:     frames,
		failures:   failures,
		components: components,
	}, nil
}

// drawRepairDelay returns a delay uniform over whole minutes in the repair range.
func (e *Engine) drawRepairDelay(rng *rand.Rand) time.Duration {
	span := int64((e.cfg.Repair.Max - e.cfg.Repair.Min) / time.Minute)
	return e.cfg.Repair.Min + time.Duration(rng.Int64N(span+1))*time.Minute
}
