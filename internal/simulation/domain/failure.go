package simulation

import (
	"fmt"
	"time"
)

// FailureEvent is one recorded outage of a component.
type FailureEvent struct {
	Component  ComponentID
	Start      time.Time
	RepairTime time.Time
	Downtime   time.Duration
	Cause      string
}

// NewFailureEvent builds an event; downtime is derived from the two timestamps.
func NewFailureEvent(component ComponentID, start, repairTime time.Time) (FailureEvent, error) {
	if component == "" {
		return FailureEvent{}, ErrUnknownComponent
	}
	if !repairTime.After(start) {
		return FailureEvent{}, fmt.Errorf("%w: start %s repair %s", ErrRepairNotAfterStart,
			start.Format(time.RFC3339), repairTime.Format(time.RFC3339))
	}
	return FailureEvent{
		Component:  component,
		Start:      start,
		RepairTime: repairTime,
		Downtime:   repairTime.Sub(start),
		Cause:      CauseFor(component),
	}, nil
}

// CauseFor returns the human-readable cause tag of a component failure.
func CauseFor(component ComponentID) string {
	return string(component) + " failure"
}

// FailureRecord is a failure event tagged with its wagon.
type FailureRecord struct {
	WagonID string
	FailureEvent
}
