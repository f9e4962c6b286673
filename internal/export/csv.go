package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"railfleet-sim/internal/dataset"
)

const timeLayout = time.RFC3339

// WriteCSV writes a header row and one record per table row.
func WriteCSV(w io.Writer, table *dataset.Table) error {
	writer := csv.NewWriter(w)
	schema := table.Schema()
	if err := writer.Write(schema.Names()); err != nil {
		return err
	}
	record := make([]string, len(schema))
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		for j, col := range schema {
			cell, err := formatCell(col.Kind, row[j])
			if err != nil {
				return fmt.Errorf("column %s: %w", col.Name, err)
			}
			record[j] = cell
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(kind dataset.Kind, value any) (string, error) {
	switch kind {
	case dataset.KindString:
		return value.(string), nil
	case dataset.KindFloat:
		return formatFloat(value.(float64)), nil
	case dataset.KindInt:
		return strconv.FormatInt(value.(int64), 10), nil
	case dataset.KindBool:
		return strconv.FormatBool(value.(bool)), nil
	case dataset.KindTime:
		return formatTime(value.(time.Time)), nil
	case dataset.KindDuration:
		return strconv.FormatInt(durationSeconds(value.(time.Duration)), 10), nil
	default:
		return "", fmt.Errorf("%w: kind %s", ErrUnsupportedFormat, kind)
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timeLayout)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// durationSeconds is the on-disk representation of duration columns.
func durationSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
