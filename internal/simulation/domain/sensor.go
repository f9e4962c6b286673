package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// SensorFrame is one telemetry record.
type SensorFrame struct {
	Timestamp time.Time
	Speed     float64
	Brake     float64
	Temp      float64
	Vibration float64
	Battery   float64
}

// Gaussian is a normal distribution.
type Gaussian struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

func (g Gaussian) draw(rng *rand.Rand) float64 {
	return g.Mean + g.StdDev*rng.NormFloat64()
}

// Drift shifts a channel mean by PerLifetime for every lifetime of age of Component.
type Drift struct {
	Component   ComponentID `yaml:"component"`
	PerLifetime float64     `yaml:"per_lifetime"`
}

// ChannelProfile describes one analog channel.
type ChannelProfile struct {
	Nominal     Gaussian `yaml:"nominal"`
	Degraded    Gaussian `yaml:"degraded"`
	Drift       Drift    `yaml:"drift"`
	NonNegative bool     `yaml:"non_negative"`
}

// Range is a closed uniform interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) draw(rng *rand.Rand) float64 {
	return r.Min + (r.Max-r.Min)*rng.Float64()
}

// BatteryProfile describes the monotonically draining battery channel.
// Drains are per day and scale with the step length.
type BatteryProfile struct {
	Initial         float64 `yaml:"initial"`
	DegradedInitial float64 `yaml:"degraded_initial"`
	NominalDrain    Range   `yaml:"nominal_drain"`
	DegradedDrain   Range   `yaml:"degraded_drain"`
}

// SensorProfile is the read-only sensor synthesis configuration.
type SensorProfile struct {
	Speed     ChannelProfile `yaml:"speed"`
	Brake     ChannelProfile `yaml:"brake"`
	Temp      ChannelProfile `yaml:"temp"`
	Vibration ChannelProfile `yaml:"vibration"`
	Battery   BatteryProfile `yaml:"battery"`
}

// DefaultSensorProfile returns the standard channel behaviour.
func DefaultSensorProfile() SensorProfile {
	return SensorProfile{
		Speed: ChannelProfile{
			Nominal:     Gaussian{Mean: 60, StdDev: 5},
			Degraded:    Gaussian{Mean: 0, StdDev: 0},
			Drift:       Drift{Component: ComponentAxle, PerLifetime: -2.0},
			NonNegative: true,
		},
		Brake: ChannelProfile{
			Nominal:     Gaussian{Mean: 5, StdDev: 0.5},
			Degraded:    Gaussian{Mean: 1, StdDev: 0.3},
			Drift:       Drift{Component: ComponentBrakes, PerLifetime: -0.5},
			NonNegative: true,
		},
		Temp: ChannelProfile{
			Nominal:  Gaussian{Mean: 40, StdDev: 5},
			Degraded: Gaussian{Mean: 80, StdDev: 10},
			Drift:    Drift{Component: ComponentCooling, PerLifetime: 5.0},
		},
		Vibration: ChannelProfile{
			Nominal:     Gaussian{Mean: 2, StdDev: 0.5},
			Degraded:    Gaussian{Mean: 10, StdDev: 5},
			Drift:       Drift{Component: ComponentAxle, PerLifetime: 0.5},
			NonNegative: true,
		},
		Battery: BatteryProfile{
			Initial:         100,
			DegradedInitial: 95,
			NominalDrain:    Range{Min: 0.01, Max: 0.05},
			DegradedDrain:   Range{Min: 0.2, Max: 0.5},
		},
	}
}

// Validate checks spreads, drains and drift references against the hazard table.
func (p SensorProfile) Validate(hazards *HazardTable) error {
	channels := []struct {
		name    string
		profile ChannelProfile
	}{
		{"speed", p.Speed},
		{"brake", p.Brake},
		{"temp", p.Temp},
		{"vibration", p.Vibration},
	}
	for _, ch := range channels {
		values := []float64{ch.profile.Nominal.Mean, ch.profile.Nominal.StdDev,
			ch.profile.Degraded.Mean, ch.profile.Degraded.StdDev, ch.profile.Drift.PerLifetime}
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s has non-finite value", ErrInvalidSensorProfile, ch.name)
			}
		}
		if ch.profile.Nominal.StdDev < 0 || ch.profile.Degraded.StdDev < 0 {
			return fmt.Errorf("%w: %s stddev must not be negative", ErrInvalidSensorProfile, ch.name)
		}
		if ch.profile.Drift.Component == "" {
			continue
		}
		if hazards == nil {
			continue
		}
		if _, ok := hazards.Params(ch.profile.Drift.Component); !ok {
			return fmt.Errorf("%w: %s drift references %s", ErrUnknownComponent, ch.name, ch.profile.Drift.Component)
		}
	}
	b := p.Battery
	for _, v := range []float64{b.Initial, b.DegradedInitial, b.NominalDrain.Min, b.NominalDrain.Max, b.DegradedDrain.Min, b.DegradedDrain.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: battery has non-finite value", ErrInvalidSensorProfile)
		}
	}
	if b.Initial < 0 || b.DegradedInitial < 0 {
		return fmt.Errorf("%w: battery initial level must not be negative", ErrInvalidSensorProfile)
	}
	for _, r := range []Range{b.NominalDrain, b.DegradedDrain} {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("%w: battery drain range %v..%v", ErrInvalidSensorProfile, r.Min, r.Max)
		}
	}
	return nil
}

// synthesizer produces frames for one wagon run. It owns the battery level.
type synthesizer struct {
	profile  SensorProfile
	stepDays float64
	battery  float64
	started  bool
}

func newSynthesizer(profile SensorProfile, stepDays float64) *synthesizer {
	return &synthesizer{profile: profile, stepDays: stepDays}
}

// next draws the frame at t. wear returns a component's age in lifetimes.
func (s *synthesizer) next(t time.Time, failed bool, wear func(ComponentID) float64, rng *rand.Rand) SensorFrame {
	frame := SensorFrame{Timestamp: t}
	frame.Speed = s.channel(s.profile.Speed, failed, wear, rng)
	frame.Brake = s.channel(s.profile.Brake, failed, wear, rng)
	frame.Temp = s.channel(s.profile.Temp, failed, wear, rng)
	frame.Vibration = s.channel(s.profile.Vibration, failed, wear, rng)
	frame.Battery = s.nextBattery(failed, rng)
	return frame
}

func (s *synthesizer) channel(p ChannelProfile, failed bool, wear func(ComponentID) float64, rng *rand.Rand) float64 {
	var v float64
	if failed {
		v = p.Degraded.draw(rng)
	} else {
		v = p.Nominal.draw(rng)
		if p.Drift.Component != "" {
			v += p.Drift.PerLifetime * wear(p.Drift.Component)
		}
	}
	if p.NonNegative && v < 0 {
		return 0
	}
	return v
}

func (s *synthesizer) nextBattery(failed bool, rng *rand.Rand) float64 {
	b := s.profile.Battery
	if !s.started {
		s.started = true
		if failed {
			s.battery = b.DegradedInitial
		} else {
			s.battery = b.Initial
		}
		return s.battery
	}
	drain := b.NominalDrain
	if failed {
		drain = b.DegradedDrain
	}
	s.battery -= drain.draw(rng) * s.stepDays
	if s.battery < 0 {
		s.battery = 0
	}
	return s.battery
}
