package simulation

import "time"

// ComponentStatus is the state of a component.
type ComponentStatus int

const (
	StatusHealthy ComponentStatus = iota
	StatusFailed
)

// String returns the status name.
func (s ComponentStatus) String() string {
	if s == StatusFailed {
		return "failed"
	}
	return "healthy"
}

// ComponentState is the mutable per-component record of one run.
// Params holds the effective per-step hazard for this wagon.
type ComponentState struct {
	ID              ComponentID
	Params          HazardParams
	Status          ComponentStatus
	LastReplacement time.Time
	RepairDue       time.Time
	History         []FailureEvent
}

// Failed reports whether the component is in an outage.
func (c *ComponentState) Failed() bool {
	return c.Status == StatusFailed
}

// Age returns time since last replacement, never negative.
func (c *ComponentState) Age(at time.Time) time.Duration {
	age := at.Sub(c.LastReplacement)
	if age < 0 {
		return 0
	}
	return age
}

// AgeDays returns Age in days.
func (c *ComponentState) AgeDays(at time.Time) float64 {
	return float64(c.Age(at)) / float64(day)
}

// fail moves a healthy component to FAILED and records the event.
func (c *ComponentState) fail(at time.Time, delay time.Duration) (FailureEvent, error) {
	event, err := NewFailureEvent(c.ID, at, at.Add(delay))
	if err != nil {
		return FailureEvent{}, err
	}
	c.Status = StatusFailed
	c.RepairDue = event.RepairTime
	c.History = append(c.History, event)
	return event, nil
}

// repair restores the component as good as new at the given time.
func (c *ComponentState) repair(at time.Time) {
	c.Status = StatusHealthy
	c.RepairDue = time.Time{}
	c.LastReplacement = at
}

// ComponentSnapshot is the final state of a component after a run.
type ComponentSnapshot struct {
	ID              ComponentID
	Status          ComponentStatus
	LastReplacement time.Time
	Failures        int
}

func (c *ComponentState) snapshot() ComponentSnapshot {
	return ComponentSnapshot{
		ID:              c.ID,
		Status:          c.Status,
		LastReplacement: c.LastReplacement,
		Failures:        len(c.History),
	}
}
