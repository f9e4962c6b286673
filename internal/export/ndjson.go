package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"railfleet-sim/internal/dataset"
)

// WriteNDJSON writes one JSON object per row, newline delimited.
// Keys follow schema order.
func WriteNDJSON(w io.Writer, table *dataset.Table) error {
	buf := bufio.NewWriter(w)
	schema := table.Schema()
	keys := make([][]byte, len(schema))
	for i, col := range schema {
		key, err := json.Marshal(col.Name)
		if err != nil {
			return err
		}
		keys[i] = key
	}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		if err := buf.WriteByte('{'); err != nil {
			return err
		}
		for j, col := range schema {
			if j > 0 {
				_ = buf.WriteByte(',')
			}
			_, _ = buf.Write(keys[j])
			_ = buf.WriteByte(':')
			value, err := jsonValue(col.Kind, row[j])
			if err != nil {
				return fmt.Errorf("column %s: %w", col.Name, err)
			}
			if _, err := buf.Write(value); err != nil {
				return err
			}
		}
		if _, err := buf.WriteString("}\n"); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func jsonValue(kind dataset.Kind, value any) ([]byte, error) {
	switch kind {
	case dataset.KindTime:
		return json.Marshal(formatTime(value.(time.Time)))
	case dataset.KindDuration:
		return json.Marshal(durationSeconds(value.(time.Duration)))
	default:
		return json.Marshal(value)
	}
}
