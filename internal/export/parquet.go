package export

import (
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"railfleet-sim/internal/dataset"
)

// parquetBatchRows bounds the size of each record batch.
const parquetBatchRows = 64 * 1024

// ArrowSchema maps a dataset schema to arrow. Times become UTC microsecond
// timestamps and durations become int64 seconds.
func ArrowSchema(schema dataset.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(schema))
	for _, col := range schema {
		var dt arrow.DataType
		switch col.Kind {
		case dataset.KindString:
			dt = arrow.BinaryTypes.String
		case dataset.KindFloat:
			dt = arrow.PrimitiveTypes.Float64
		case dataset.KindInt, dataset.KindDuration:
			dt = arrow.PrimitiveTypes.Int64
		case dataset.KindBool:
			dt = arrow.FixedWidthTypes.Boolean
		case dataset.KindTime:
			dt = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
		default:
			return nil, fmt.Errorf("%w: column %s kind %s", ErrUnsupportedFormat, col.Name, col.Kind)
		}
		fields = append(fields, arrow.Field{Name: col.Name, Type: dt})
	}
	return arrow.NewSchema(fields, nil), nil
}

// WriteParquet writes table as a single parquet file.
func WriteParquet(w io.Writer, table *dataset.Table) error {
	schema, err := ArrowSchema(table.Schema())
	if err != nil {
		return err
	}
	writer, err := pqarrow.NewFileWriter(schema, w, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	flush := func() error {
		record := builder.NewRecord()
		defer record.Release()
		return writer.Write(record)
	}

	kinds := table.Schema()
	pending := 0
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		for j, col := range kinds {
			appendValue(builder.Field(j), col.Kind, row[j])
		}
		pending++
		if pending == parquetBatchRows {
			if err := flush(); err != nil {
				_ = writer.Close()
				return err
			}
			pending = 0
		}
	}
	if pending > 0 || table.Len() == 0 {
		if err := flush(); err != nil {
			_ = writer.Close()
			return err
		}
	}
	return writer.Close()
}

func appendValue(b array.Builder, kind dataset.Kind, value any) {
	switch kind {
	case dataset.KindString:
		b.(*array.StringBuilder).Append(value.(string))
	case dataset.KindFloat:
		b.(*array.Float64Builder).Append(value.(float64))
	case dataset.KindInt:
		b.(*array.Int64Builder).Append(value.(int64))
	case dataset.KindDuration:
		b.(*array.Int64Builder).Append(durationSeconds(value.(time.Duration)))
	case dataset.KindBool:
		b.(*array.BooleanBuilder).Append(value.(bool))
	case dataset.KindTime:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(value.(time.Time).UnixMicro()))
	}
}
