package wagon

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Provider fabricates identifiers and company names.
type Provider interface {
	WagonID() (string, error)
	Company() string
}

// Clock provides time for the generator.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now in UTC.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// DatePolicy bounds the manufacture and sensor install dates, in years before now.
type DatePolicy struct {
	ManufactureMinYears int `yaml:"manufacture_min_years"`
	ManufactureMaxYears int `yaml:"manufacture_max_years"`
	InstallMinYears     int `yaml:"install_min_years"`
	InstallMaxYears     int `yaml:"install_max_years"`
}

// DefaultDatePolicy: wagons are at least 5 years old with 1 to 5 years of sensor data.
func DefaultDatePolicy() DatePolicy {
	return DatePolicy{
		ManufactureMinYears: 5,
		ManufactureMaxYears: 30,
		InstallMinYears:     1,
		InstallMaxYears:     5,
	}
}

// Validate checks the bounds.
func (p DatePolicy) Validate() error {
	if p.ManufactureMinYears <= 0 || p.InstallMinYears <= 0 {
		return fmt.Errorf("%w: year bounds must be positive", ErrInvalidDatePolicy)
	}
	if p.ManufactureMinYears > p.ManufactureMaxYears {
		return fmt.Errorf("%w: manufacture min %d > max %d", ErrInvalidDatePolicy, p.ManufactureMinYears, p.ManufactureMaxYears)
	}
	if p.InstallMinYears > p.InstallMaxYears {
		return fmt.Errorf("%w: install min %d > max %d", ErrInvalidDatePolicy, p.InstallMinYears, p.InstallMaxYears)
	}
	// the oldest possible manufacture date must precede the latest install date
	if p.ManufactureMaxYears <= p.InstallMinYears {
		return fmt.Errorf("%w: manufacture max %d must exceed install min %d", ErrInvalidDatePolicy, p.ManufactureMaxYears, p.InstallMinYears)
	}
	return nil
}

// Generator builds wagons from a catalog and a fabrication provider.
type Generator struct {
	catalog  *Catalog
	provider Provider
	policy   DatePolicy
	clock    Clock
}

// NewGenerator constructs a Generator.
func NewGenerator(catalog *Catalog, provider Provider, policy DatePolicy, clock Clock) (*Generator, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	if provider == nil {
		return nil, ErrNilProvider
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Generator{catalog: catalog, provider: provider, policy: policy, clock: clock}, nil
}

// Generate draws one wagon. The install date is drawn conditioned on the
// manufacture date so it always postdates it.
func (g *Generator) Generate(rng *rand.Rand) (Wagon, error) {
	id, err := g.provider.WagonID()
	if err != nil {
		return Wagon{}, err
	}
	wagonType := g.catalog.Pick(rng)
	dims := Dimensions{
		CapacityTons: 20 + rng.IntN(101),
		LengthM:      round2(uniform(rng, 8.0, 25.0)),
		WidthM:       round2(uniform(rng, 2.5, 3.5)),
		HeightM:      round2(uniform(rng, 2.0, 4.5)),
	}

	manufactured, installed := g.drawDates(rng)
	return NewWagon(id, wagonType, dims, g.provider.Company(), g.provider.Company(), manufactured, installed)
}

func (g *Generator) drawDates(rng *rand.Rand) (time.Time, time.Time) {
	now := g.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	installLower := today.AddDate(-g.policy.InstallMaxYears, 0, 0)
	installUpper := today.AddDate(-g.policy.InstallMinYears, 0, 0)
	manufactureLower := today.AddDate(-g.policy.ManufactureMaxYears, 0, 0)
	manufactureUpper := today.AddDate(-g.policy.ManufactureMinYears, 0, 0)
	if !manufactureUpper.Before(installUpper) {
		manufactureUpper = installUpper.AddDate(0, 0, -1)
	}

	manufactured := uniformDay(rng, manufactureLower, manufactureUpper)
	lower := installLower
	if next := manufactured.AddDate(0, 0, 1); next.After(lower) {
		lower = next
	}
	installed := uniformDay(rng, lower, installUpper)
	return manufactured, installed
}

// uniformDay draws a midnight date in [lower, upper].
func uniformDay(rng *rand.Rand, lower, upper time.Time) time.Time {
	days := int(upper.Sub(lower) / (24 * time.Hour))
	if days <= 0 {
		return lower
	}
	return lower.AddDate(0, 0, rng.IntN(days+1))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
