package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"railfleet-sim/internal/dataset"
	"railfleet-sim/internal/export"
	simulation "railfleet-sim/internal/simulation/domain"
	wagon "railfleet-sim/internal/wagon/domain"
)

// Sink writes tables and rendered documents.
type Sink interface {
	Save(table *dataset.Table, dir, fileName string, format export.Format) (string, error)
	SaveBytes(content []byte, dir, name string) (string, error)
}

// ReportRenderer renders per-wagon PDF documents.
type ReportRenderer interface {
	WagonSheet(w wagon.Wagon, now time.Time) ([]byte, error)
	FailureReport(w wagon.Wagon, result *simulation.Result) ([]byte, error)
}

// Exporter writes a fleet to the configured dataset layout.
type Exporter struct {
	sink    Sink
	out     OutputConfig
	format  export.Format
	label   simulation.LabelMode
	reports ReportRenderer
	logger  *log.Logger
}

// ExporterOption configures Exporter.
type ExporterOption func(*Exporter)

// WithReports enables PDF reports rendered by renderer.
func WithReports(renderer ReportRenderer) ExporterOption {
	return func(e *Exporter) {
		e.reports = renderer
	}
}

// WithExportLogger sets the exporter logger.
func WithExportLogger(logger *log.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// NewExporter constructs an exporter.
func NewExporter(sink Sink, out OutputConfig, format export.Format, label simulation.LabelMode, opts ...ExporterOption) (*Exporter, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidConfig)
	}
	if _, err := export.ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if _, err := simulation.ParseLabelMode(string(label)); err != nil {
		return nil, err
	}
	e := &Exporter{sink: sink, out: out, format: format, label: label}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Export writes sensors, failures, metadata, training data and optional
// reports for fleet, returning the written paths in write order.
func (e *Exporter) Export(ctx context.Context, fleet *Fleet) ([]string, error) {
	if fleet == nil {
		return nil, ErrNilFleet
	}
	var written []string
	save := func(table *dataset.Table, err error, sub, name string) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		path, err := e.sink.Save(table, e.out.Path(sub), name, e.format)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	for _, entry := range fleet.Entries {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		id := entry.Wagon.ID
		sensors, err := entry.Result.SensorTable(fleet.Cutoff)
		if err := save(sensors, err, e.out.SensorsDir, id+"_sensors"); err != nil {
			return written, err
		}
		if !e.out.CombinedFailures {
			historic, _ := entry.Result.Partition(fleet.Cutoff)
			table, err := simulation.NewFailureTable(entry.Result.Records(historic)...)
			if err := save(table, err, e.out.FailuresDir, id+"_failures"); err != nil {
				return written, err
			}
		}
		if !e.out.CombinedMetadata {
			table, err := wagon.MetadataTable(entry.Wagon)
			if err := save(table, err, e.out.MetadataDir, id+"_metadata"); err != nil {
				return written, err
			}
		}
	}

	if e.out.CombinedFailures {
		table, err := fleet.HistoricFailures()
		if err := save(table, err, e.out.FailuresDir, "combined_failures"); err != nil {
			return written, err
		}
	}
	future, err := fleet.FutureFailures()
	if err := save(future, err, e.out.FailuresDir, "combined_future_failures"); err != nil {
		return written, err
	}
	if e.out.CombinedMetadata {
		table, err := fleet.Metadata()
		if err := save(table, err, e.out.MetadataDir, "combined_metadata"); err != nil {
			return written, err
		}
	}
	training, err := fleet.TrainingData(e.label, true)
	if err := save(training, err, e.out.TrainingDir, "fleet_training"); err != nil {
		return written, err
	}

	if e.out.Reports && e.reports != nil {
		paths, err := e.writeReports(ctx, fleet)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}

	e.logf("event=fleet_exported run_id=%s files=%d format=%s", fleet.RunID, len(written), e.format)
	return written, nil
}

func (e *Exporter) writeReports(ctx context.Context, fleet *Fleet) ([]string, error) {
	var written []string
	dir := e.out.Path(e.out.ReportsDir)
	for _, entry := range fleet.Entries {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		sheet, err := e.reports.WagonSheet(entry.Wagon, fleet.CreatedAt)
		if err != nil {
			return written, fmt.Errorf("wagon sheet %s: %w", entry.Wagon.ID, err)
		}
		path, err := e.sink.SaveBytes(sheet, dir, entry.Wagon.ID+".pdf")
		if err != nil {
			return written, err
		}
		written = append(written, path)

		report, err := e.reports.FailureReport(entry.Wagon, entry.Result)
		if err != nil {
			return written, fmt.Errorf("failure report %s: %w", entry.Wagon.ID, err)
		}
		path, err = e.sink.SaveBytes(report, dir, entry.Wagon.ID+"_failures.pdf")
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (e *Exporter) logf(format string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}
