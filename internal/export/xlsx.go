package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"railfleet-sim/internal/dataset"
)

const xlsxSheet = "data"

// WriteXLSX writes table to a single-sheet workbook.
func WriteXLSX(w io.Writer, table *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	schema := table.Schema()
	for j, col := range schema {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(xlsxSheet, cell, col.Name)
	}

	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		values := make([]any, len(schema))
		for j, col := range schema {
			switch col.Kind {
			case dataset.KindTime:
				values[j] = formatTime(row[j].(time.Time))
			case dataset.KindDuration:
				values[j] = durationSeconds(row[j].(time.Duration))
			default:
				values[j] = row[j]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
