// Package export serializes dataset tables to files.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"railfleet-sim/internal/dataset"
)

var (
	// ErrUnsupportedFormat is returned for unknown output formats.
	ErrUnsupportedFormat = errors.New("export: unsupported format")
	// ErrNilTable is returned when no table is supplied.
	ErrNilTable = errors.New("export: nil table")
	// ErrEmptyFileName is returned for a blank file name.
	ErrEmptyFileName = errors.New("export: empty file name")
)

// Format is an output encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatNDJSON  Format = "ndjson"
	FormatParquet Format = "parquet"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv":
		return FormatCSV, nil
	case "ndjson", "jsonl", "json":
		return FormatNDJSON, nil
	case "parquet":
		return FormatParquet, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type used when serving the format over HTTP.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Write encodes table to w in format.
func Write(w io.Writer, table *dataset.Table, format Format) error {
	if table == nil {
		return ErrNilTable
	}
	switch format {
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatNDJSON:
		return WriteNDJSON(w, table)
	case FormatParquet:
		return WriteParquet(w, table)
	case FormatXLSX:
		return WriteXLSX(w, table)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
