package simulation

import (
	"fmt"
	"math"
	"strings"
)

// ComponentID names a wagon subsystem.
type ComponentID string

const (
	ComponentBrakes  ComponentID = "brakes"
	ComponentAxle    ComponentID = "axle"
	ComponentBattery ComponentID = "battery"
	ComponentCooling ComponentID = "cooling"
)

// HazardParams is the aging hazard of one component.
// BaseRate is the per-day failure probability at age zero, Lifetime the
// characteristic lifetime in days and Shape the wear-out exponent.
type HazardParams struct {
	BaseRate float64 `yaml:"lambda0"`
	Lifetime float64 `yaml:"lifetime"`
	Shape    float64 `yaml:"beta"`
}

// Validate rejects parameters that would produce degenerate hazards.
func (p HazardParams) Validate() error {
	for _, v := range []float64{p.BaseRate, p.Lifetime, p.Shape} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %+v", ErrInvalidHazard, p)
		}
	}
	if p.BaseRate <= 0 || p.BaseRate > 1 {
		return fmt.Errorf("%w: lambda0 %v outside (0, 1]", ErrInvalidHazard, p.BaseRate)
	}
	if p.Lifetime <= 0 {
		return fmt.Errorf("%w: lifetime %v must be positive", ErrInvalidHazard, p.Lifetime)
	}
	if p.Shape < 0 {
		return fmt.Errorf("%w: beta %v must not be negative", ErrInvalidHazard, p.Shape)
	}
	return nil
}

// Hazard returns min(1, lambda0 * (1 + age/L)^beta) for an age in days.
// Negative ages are treated as zero.
func (p HazardParams) Hazard(ageDays float64) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Min(1.0, p.BaseRate*math.Pow(1+ageDays/p.Lifetime, p.Shape))
}

// ComponentHazard binds hazard parameters to a component.
type ComponentHazard struct {
	Component    ComponentID `yaml:"name"`
	HazardParams `yaml:",inline"`
}

// HazardTable is the ordered, read-only component configuration.
// Order is significant: components are visited in it every step.
type HazardTable struct {
	entries []ComponentHazard
	index   map[ComponentID]int
}

// NewHazardTable validates entries and builds a table.
func NewHazardTable(entries []ComponentHazard) (*HazardTable, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyHazardTable
	}
	table := &HazardTable{
		entries: make([]ComponentHazard, 0, len(entries)),
		index:   make(map[ComponentID]int, len(entries)),
	}
	for _, entry := range entries {
		entry.Component = ComponentID(strings.TrimSpace(string(entry.Component)))
		if entry.Component == "" {
			return nil, fmt.Errorf("%w: empty component name", ErrInvalidHazard)
		}
		if _, ok := table.index[entry.Component]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, entry.Component)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Component, err)
		}
		table.index[entry.Component] = len(table.entries)
		table.entries = append(table.entries, entry)
	}
	return table, nil
}

// DefaultHazards returns the standard brakes/axle/battery/cooling parameters.
func DefaultHazards() []ComponentHazard {
	return []ComponentHazard{
		{Component: ComponentBrakes, HazardParams: HazardParams{BaseRate: 0.0003, Lifetime: 800, Shape: 2.0}},
		{Component: ComponentAxle, HazardParams: HazardParams{BaseRate: 0.0002, Lifetime: 1200, Shape: 1.8}},
		{Component: ComponentBattery, HazardParams: HazardParams{BaseRate: 0.0001, Lifetime: 600, Shape: 2.2}},
		{Component: ComponentCooling, HazardParams: HazardParams{BaseRate: 0.0004, Lifetime: 500, Shape: 2.5}},
	}
}

// Components returns component ids in table order.
func (t *HazardTable) Components() []ComponentID {
	ids := make([]ComponentID, len(t.entries))
	for i, entry := range t.entries {
		ids[i] = entry.Component
	}
	return ids
}

// Params returns the parameters of a component.
func (t *HazardTable) Params(id ComponentID) (HazardParams, bool) {
	idx, ok := t.index[id]
	if !ok {
		return HazardParams{}, false
	}
	return t.entries[idx].HazardParams, true
}
