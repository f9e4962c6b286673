package simulation

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Timeline is the step grid Start, Start+Step, ... up to and including End.
type Timeline struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// ValidateStep accepts positive steps that divide a day evenly.
func ValidateStep(step time.Duration) error {
	if step <= 0 || step > day || day%step != 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedStep, step)
	}
	return nil
}

// NewTimeline builds a timeline from start through end. end equal to start
// yields a single step.
func NewTimeline(start, end time.Time, step time.Duration) (Timeline, error) {
	if err := ValidateStep(step); err != nil {
		return Timeline{}, err
	}
	start = start.UTC()
	end = end.UTC()
	if end.Before(start) {
		return Timeline{}, fmt.Errorf("%w: start %s end %s", ErrEmptyTimeline, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Timeline{Start: start, End: end, Step: step}, nil
}

// Len returns the number of grid steps not after End.
func (t Timeline) Len() int {
	return int(t.End.Sub(t.Start)/t.Step) + 1
}

// At returns the timestamp of step i.
func (t Timeline) At(i int) time.Time {
	return t.Start.Add(time.Duration(i) * t.Step)
}

// StepDays returns the step length as a fraction of a day.
func (t Timeline) StepDays() float64 {
	return float64(t.Step) / float64(day)
}
