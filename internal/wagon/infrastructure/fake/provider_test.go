package fake

import (
	"errors"
	"strings"
	"testing"

	wagon "railfleet-sim/internal/wagon/domain"
)

func TestProviderIDsAreUnique(t *testing.T) {
	p := NewProvider(42)
	seen := make(map[string]struct{})
	for i := 0; i < 5000; i++ {
		id, err := p.WagonID()
		if err != nil {
			t.Fatalf("wagon id: %v", err)
		}
		if !strings.HasPrefix(id, "WGN-") || len(id) != 9 {
			t.Fatalf("unexpected id format %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestProviderExhaustion(t *testing.T) {
	p := NewProvider(1)
	for n := idMin; n <= idMax; n++ {
		p.used[n] = struct{}{}
	}
	if _, err := p.WagonID(); !errors.Is(err, wagon.ErrIDSpaceExhausted) {
		t.Fatalf("expected ErrIDSpaceExhausted, got %v", err)
	}
}

func TestProviderCompany(t *testing.T) {
	p := NewProvider(7)
	if p.Company() == "" {
		t.Fatalf("expected company name")
	}
}

func TestProviderZeroSeedIsReproducible(t *testing.T) {
	a, b := NewProvider(0), NewProvider(0)
	for i := 0; i < 20; i++ {
		idA, err := a.WagonID()
		if err != nil {
			t.Fatalf("wagon id: %v", err)
		}
		idB, err := b.WagonID()
		if err != nil {
			t.Fatalf("wagon id: %v", err)
		}
		if idA != idB {
			t.Fatalf("draw %d: %q != %q", i, idA, idB)
		}
		if ca, cb := a.Company(), b.Company(); ca != cb {
			t.Fatalf("draw %d: company %q != %q", i, ca, cb)
		}
	}
}
