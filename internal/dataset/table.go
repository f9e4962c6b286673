// Package dataset holds the typed tabular structure handed to serialization
// and reporting sinks.
package dataset

import (
	"fmt"
	"time"
)

// Kind is the value type of a column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindBool
	KindTime
	KindDuration
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// Column describes one named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered column list.
type Schema []Column

// Equal reports whether two schemas have the same names and kinds in order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Index returns the position of a column by name.
func (s Schema) Index(name string) (int, bool) {
	for i, col := range s {
		if col.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, col := range s {
		names[i] = col.Name
	}
	return names
}

// Table is an append-only row set with a fixed schema.
// A table with zero rows still carries its schema.
type Table struct {
	schema Schema
	rows   [][]any
}

// NewTable constructs an empty table.
func NewTable(schema Schema, capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	cols := make(Schema, len(schema))
	copy(cols, schema)
	return &Table{schema: cols, rows: make([][]any, 0, capacity)}
}

// Schema returns a copy of the table schema.
func (t *Table) Schema() Schema {
	cols := make(Schema, len(t.schema))
	copy(cols, t.schema)
	return cols
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns the values of row i. The slice must not be modified.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Append adds a row after checking arity and value kinds.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.schema) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrArity, len(values), len(t.schema))
	}
	for i, col := range t.schema {
		if !matches(col.Kind, values[i]) {
			return fmt.Errorf("%w: column %q wants %s, got %T", ErrKind, col.Name, col.Kind, values[i])
		}
	}
	row := make([]any, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// Filter returns a new table with the rows accepted by keep.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	out := NewTable(t.schema, 0)
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// TimeFilter keeps the rows whose time column satisfies keep.
func (t *Table) TimeFilter(column string, keep func(time.Time) bool) (*Table, error) {
	idx, ok := t.schema.Index(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if t.schema[idx].Kind != KindTime {
		return nil, fmt.Errorf("%w: column %q is %s", ErrKind, column, t.schema[idx].Kind)
	}
	return t.Filter(func(row []any) bool {
		return keep(row[idx].(time.Time))
	}), nil
}

// Concat stacks tables sharing one schema. With no tables the result uses schema.
func Concat(schema Schema, tables ...*Table) (*Table, error) {
	total := 0
	for _, table := range tables {
		if table == nil {
			continue
		}
		if !table.schema.Equal(schema) {
			return nil, ErrSchemaMismatch
		}
		total += len(table.rows)
	}
	out := NewTable(schema, total)
	for _, table := range tables {
		if table == nil {
			continue
		}
		out.rows = append(out.rows, table.rows...)
	}
	return out, nil
}

func matches(kind Kind, value any) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindFloat:
		_, ok := value.(float64)
		return ok
	case KindInt:
		_, ok := value.(int64)
		return ok
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindTime:
		_, ok := value.(time.Time)
		return ok
	case KindDuration:
		_, ok := value.(time.Duration)
		return ok
	default:
		return false
	}
}
