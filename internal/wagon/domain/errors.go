package wagon

import "errors"

var (
	// ErrEmptyCatalog is returned when no wagon types are configured.
	ErrEmptyCatalog = errors.New("wagon: empty type catalog")
	// ErrInvalidType is returned for an unnamed type or a negative rate multiplier.
	ErrInvalidType = errors.New("wagon: invalid wagon type")
	// ErrDuplicateType is returned when a catalog lists a type twice.
	ErrDuplicateType = errors.New("wagon: duplicate wagon type")
	// ErrInvalidDatePolicy is returned when date bounds are inconsistent.
	ErrInvalidDatePolicy = errors.New("wagon: invalid date policy")
	// ErrInstallBeforeManufacture guards sensor install dates.
	ErrInstallBeforeManufacture = errors.New("wagon: sensor install date must be after manufacture date")
	// ErrEmptyID is returned when a wagon id is empty.
	ErrEmptyID = errors.New("wagon: empty id")
	// ErrInvalidDimensions is returned for non-positive dimensions.
	ErrInvalidDimensions = errors.New("wagon: invalid dimensions")
	// ErrNilProvider is returned when no fabrication provider is supplied.
	ErrNilProvider = errors.New("wagon: nil provider")
	// ErrIDSpaceExhausted is returned when a provider cannot issue another unique id.
	ErrIDSpaceExhausted = errors.New("wagon: id space exhausted")
)
