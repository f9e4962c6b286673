package simulation

import "errors"

var (
	// ErrInvalidHazard is returned for degenerate hazard parameters.
	ErrInvalidHazard = errors.New("simulation: invalid hazard parameters")
	// ErrEmptyHazardTable is returned when no components are configured.
	ErrEmptyHazardTable = errors.New("simulation: empty hazard table")
	// ErrDuplicateComponent is returned when a component is configured twice.
	ErrDuplicateComponent = errors.New("simulation: duplicate component")
	// ErrUnknownComponent is returned when a reference names a component missing from the hazard table.
	ErrUnknownComponent = errors.New("simulation: unknown component")
	// ErrUnsupportedStep is returned for step sizes that do not divide a day.
	ErrUnsupportedStep = errors.New("simulation: unsupported time step")
	// ErrEmptyTimeline is returned when the simulation window holds no steps.
	ErrEmptyTimeline = errors.New("simulation: empty timeline")
	// ErrInvalidRepairRange is returned for a non-positive or inverted repair delay range.
	ErrInvalidRepairRange = errors.New("simulation: invalid repair delay range")
	// ErrInvalidInitialAge is returned for a negative or inverted initial age range.
	ErrInvalidInitialAge = errors.New("simulation: invalid initial age range")
	// ErrInvalidSensorProfile is returned for negative spreads or inverted drain ranges.
	ErrInvalidSensorProfile = errors.New("simulation: invalid sensor profile")
	// ErrRepairNotAfterStart guards failure event construction.
	ErrRepairNotAfterStart = errors.New("simulation: repair time must be after failure start")
	// ErrNilRandom is returned when no random source is supplied.
	ErrNilRandom = errors.New("simulation: nil random source")
	// ErrInvalidWagon is returned when the wagon lacks an id, type or install date.
	ErrInvalidWagon = errors.New("simulation: invalid wagon")
	// ErrInvalidLabelMode is returned for an unknown training label mode.
	ErrInvalidLabelMode = errors.New("simulation: invalid label mode")
	// ErrSeedOutOfRange is returned for seeds above MaxSeed.
	ErrSeedOutOfRange = errors.New("simulation: seed out of range")
	// ErrRunNotFound is returned when a stored run does not exist.
	ErrRunNotFound = errors.New("simulation: run not found")
)
