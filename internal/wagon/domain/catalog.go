package wagon

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// WagonType is a catalog entry.
// RateMultiplier scales every component base failure rate for wagons of this type.
type WagonType struct {
	Name           string  `yaml:"name"`
	RateMultiplier float64 `yaml:"rate_multiplier"`
}

// Catalog is the fixed set of wagon types a generator draws from.
type Catalog struct {
	types []WagonType
}

// NewCatalog validates and constructs a catalog.
// A zero multiplier means unset and is stored as 1.
func NewCatalog(types []WagonType) (*Catalog, error) {
	if len(types) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(types))
	out := make([]WagonType, 0, len(types))
	for _, t := range types {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidType)
		}
		if t.RateMultiplier < 0 || math.IsNaN(t.RateMultiplier) || math.IsInf(t.RateMultiplier, 0) {
			return nil, fmt.Errorf("%w: %s rate multiplier %v", ErrInvalidType, t.Name, t.RateMultiplier)
		}
		if t.RateMultiplier == 0 {
			t.RateMultiplier = 1
		}
		if _, ok := seen[t.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateType, t.Name)
		}
		seen[t.Name] = struct{}{}
		out = append(out, t)
	}
	return &Catalog{types: out}, nil
}

// DefaultTypes returns the standard freight wagon catalog.
func DefaultTypes() []WagonType {
	return []WagonType{
		{Name: "Boxcar", RateMultiplier: 1},
		{Name: "Flatcar", RateMultiplier: 1},
		{Name: "Tank Car", RateMultiplier: 1},
		{Name: "Hopper", RateMultiplier: 1},
		{Name: "Refrigerator Car", RateMultiplier: 1},
		{Name: "Gondola", RateMultiplier: 1},
	}
}

// Types returns a copy of the catalog entries.
func (c *Catalog) Types() []WagonType {
	out := make([]WagonType, len(c.types))
	copy(out, c.types)
	return out
}

// Len returns the number of types.
func (c *Catalog) Len() int { return len(c.types) }

// Lookup finds a type by name.
func (c *Catalog) Lookup(name string) (WagonType, bool) {
	for _, t := range c.types {
		if t.Name == name {
			return t, true
		}
	}
	return WagonType{}, false
}

// Pick draws a type uniformly.
func (c *Catalog) Pick(rng *rand.Rand) WagonType {
	return c.types[rng.IntN(len(c.types))]
}
