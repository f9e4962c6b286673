package simulation

import "time"

// ComponentStats aggregates the failures of one component.
type ComponentStats struct {
	Component     ComponentID
	Failures      int
	TotalDowntime time.Duration
	// MTBF is the mean gap between consecutive failure starts; zero when
	// fewer than two failures exist.
	MTBF time.Duration
}

// HasMTBF reports whether MTBF is defined.
func (s ComponentStats) HasMTBF() bool { return s.Failures >= 2 }

// MTBFDays returns MTBF in days.
func (s ComponentStats) MTBFDays() float64 { return s.MTBF.Hours() / 24 }

// Summary aggregates a wagon run.
type Summary struct {
	WagonID       string
	Steps         int
	FailedSteps   int
	Failures      int
	TotalDowntime time.Duration
	Availability  float64
	Components    []ComponentStats
}

// Summary computes aggregate statistics for the run.
func (r *Result) Summary() Summary {
	s := Summary{
		WagonID:    r.wagonID,
		Steps:      len(r.frames),
		Failures:   len(r.failures),
		Components: make([]ComponentStats, 0, len(r.components)),
	}
	for _, f := range r.frames {
		if r.FailedAt(f.Timestamp) {
			s.FailedSteps++
		}
	}
	if s.Steps > 0 {
		s.Availability = 1 - float64(s.FailedSteps)/float64(s.Steps)
	}
	for _, snap := range r.components {
		stats := ComponentStats{Component: snap.ID}
		var first, last time.Time
		for _, event := range r.failures {
			if event.Component != snap.ID {
				continue
			}
			if stats.Failures == 0 {
				first = event.Start
			}
			last = event.Start
			stats.Failures++
			stats.TotalDowntime += event.Downtime
		}
		if stats.Failures >= 2 {
			stats.MTBF = last.Sub(first) / time.Duration(stats.Failures-1)
		}
		s.TotalDowntime += stats.TotalDowntime
		s.Components = append(s.Components, stats)
	}
	return s
}
