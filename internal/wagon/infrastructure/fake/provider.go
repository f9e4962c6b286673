// Package fake fabricates wagon identifiers and company names.
package fake

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/brianvoe/gofakeit/v7"

	wagon "railfleet-sim/internal/wagon/domain"
)

const (
	idPrefix = "WGN-"
	idMin    = 10000
	idMax    = 99999

	// PCG stream of the provider, apart from the simulation streams.
	fakerStream = 0x77676e
)

// Provider issues unique WGN-NNNNN ids and company names.
type Provider struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	used  map[int]struct{}
}

// NewProvider constructs a provider; equal seeds, zero included, give equal output.
func NewProvider(seed uint64) *Provider {
	return &Provider{
		faker: gofakeit.NewFaker(rand.NewPCG(seed, fakerStream), true),
		used:  make(map[int]struct{}),
	}
}

// WagonID returns an id not issued before by this provider.
func (p *Provider) WagonID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.used) > idMax-idMin {
		return "", wagon.ErrIDSpaceExhausted
	}
	n := p.faker.Number(idMin, idMax)
	for i := 0; i < 64; i++ {
		if _, taken := p.used[n]; !taken {
			break
		}
		n = p.faker.Number(idMin, idMax)
	}
	// dense space: walk forward from the last draw
	for {
		if _, taken := p.used[n]; !taken {
			break
		}
		n++
		if n > idMax {
			n = idMin
		}
	}
	p.used[n] = struct{}{}
	return fmt.Sprintf("%s%05d", idPrefix, n), nil
}

// Company returns a fabricated company name.
func (p *Provider) Company() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.faker.Company()
}

var _ wagon.Provider = (*Provider)(nil)
