package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"railfleet-sim/internal/dataset"
)

var sampleSchema = dataset.Schema{
	{Name: "id", Kind: dataset.KindString},
	{Name: "failure_timestamp", Kind: dataset.KindTime},
	{Name: "speed", Kind: dataset.KindFloat},
	{Name: "capacity_tons", Kind: dataset.KindInt},
	{Name: "failure", Kind: dataset.KindBool},
	{Name: "downtime", Kind: dataset.KindDuration},
}

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	table := dataset.NewTable(sampleSchema, 2)
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := table.Append("WGN-10001", ts, 61.25, int64(80), true, 5*time.Hour+30*time.Minute); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := table.Append("WGN-10002", ts.Add(24*time.Hour), 0.0, int64(20), false, 3*time.Hour); err != nil {
		t.Fatalf("append: %v", err)
	}
	return table
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"CSV": FormatCSV, "jsonl": FormatNDJSON, "ndjson": FormatNDJSON, " parquet ": FormatParquet, "xlsx": FormatXLSX}
	for raw, want := range cases {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v", raw, got, err)
		}
	}
	if _, err := ParseFormat("feather"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTable(t)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d", len(lines))
	}
	if lines[0] != "id,failure_timestamp,speed,capacity_tons,failure,downtime" {
		t.Fatalf("header=%q", lines[0])
	}
	if lines[1] != "WGN-10001,2026-05-01T00:00:00Z,61.25,80,true,19800" {
		t.Fatalf("row=%q", lines[1])
	}
}

func TestWriteCSVEmptyTableKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, dataset.NewTable(sampleSchema, 0)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(sampleSchema.Names(), ",") {
		t.Fatalf("empty csv=%q", got)
	}
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNDJSON(&buf, sampleTable(t)); err != nil {
		t.Fatalf("write ndjson: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("records=%d", len(lines))
	}
	if !strings.HasPrefix(lines[0], `{"id":"WGN-10001","failure_timestamp":`) {
		t.Fatalf("key order lost: %s", lines[0])
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["downtime"].(float64) != 10800 || record["failure"].(bool) {
		t.Fatalf("record=%v", record)
	}
	if record["failure_timestamp"].(string) != "2026-05-02T00:00:00Z" {
		t.Fatalf("timestamp=%v", record["failure_timestamp"])
	}
}

func TestWriteParquetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, sampleTable(t)); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	defer tbl.Release()
	if tbl.NumRows() != 2 || tbl.NumCols() != int64(len(sampleSchema)) {
		t.Fatalf("rows=%d cols=%d", tbl.NumRows(), tbl.NumCols())
	}
	for i, col := range sampleSchema {
		if got := tbl.Schema().Field(i).Name; got != col.Name {
			t.Fatalf("field %d=%q want %q", i, got, col.Name)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleTable(t)); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "id" || rows[1][0] != "WGN-10001" {
		t.Fatalf("rows=%v", rows)
	}
}

func TestFileSinkSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := NewFileSink()
	path, err := sink.Save(sampleTable(t), dir, "combined_failures", FormatCSV)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(dir, "combined_failures.csv") {
		t.Fatalf("path=%s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(content), "id,") {
		t.Fatalf("content=%q", content)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}

	if _, err := sink.Save(nil, dir, "x", FormatCSV); !errors.Is(err, ErrNilTable) {
		t.Fatalf("expected ErrNilTable, got %v", err)
	}
	if _, err := sink.Save(sampleTable(t), dir, " ", FormatCSV); !errors.Is(err, ErrEmptyFileName) {
		t.Fatalf("expected ErrEmptyFileName, got %v", err)
	}
	if _, err := sink.Save(sampleTable(t), dir, "x", Format("avro")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
