package dataset

import "errors"

var (
	// ErrArity is returned when a row has the wrong number of values.
	ErrArity = errors.New("dataset: row arity mismatch")
	// ErrKind is returned when a value does not match its column kind.
	ErrKind = errors.New("dataset: value kind mismatch")
	// ErrSchemaMismatch is returned when concatenating tables with different schemas.
	ErrSchemaMismatch = errors.New("dataset: schema mismatch")
	// ErrUnknownColumn is returned when a column name is not in the schema.
	ErrUnknownColumn = errors.New("dataset: unknown column")
)
