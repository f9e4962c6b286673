package application

import "errors"

var (
	// ErrInvalidConfig is returned for out-of-range run settings.
	ErrInvalidConfig = errors.New("railsim: invalid config")
	// ErrInvalidFleetSize is returned for a negative wagon count.
	ErrInvalidFleetSize = errors.New("railsim: invalid fleet size")
	// ErrNilFleet is returned when exporting or storing a nil fleet.
	ErrNilFleet = errors.New("railsim: nil fleet")
)
