package simulation

import (
	"fmt"
	"strings"
	"time"

	"railfleet-sim/internal/dataset"
)

// LabelMode selects how training rows are labelled.
type LabelMode string

const (
	// LabelOnset marks only the step at which a failure starts.
	LabelOnset LabelMode = "onset"
	// LabelOutage marks every step the wagon is failed.
	LabelOutage LabelMode = "outage"
)

// ParseLabelMode parses a label mode; empty means onset.
func ParseLabelMode(raw string) (LabelMode, error) {
	switch LabelMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LabelOnset:
		return LabelOnset, nil
	case LabelOutage:
		return LabelOutage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLabelMode, raw)
	}
}

var (
	// SensorSchema is the column layout of sensor tables.
	SensorSchema = dataset.Schema{
		{Name: "timestamp", Kind: dataset.KindTime},
		{Name: "speed", Kind: dataset.KindFloat},
		{Name: "brake", Kind: dataset.KindFloat},
		{Name: "temp", Kind: dataset.KindFloat},
		{Name: "vibration", Kind: dataset.KindFloat},
		{Name: "battery", Kind: dataset.KindFloat},
		{Name: "id", Kind: dataset.KindString},
	}
	// TrainingSchema is SensorSchema plus the failure label.
	TrainingSchema = append(append(dataset.Schema{}, SensorSchema...), dataset.Column{Name: "failure", Kind: dataset.KindBool})
	// FailureSchema is the column layout of failure tables.
	FailureSchema = dataset.Schema{
		{Name: "id", Kind: dataset.KindString},
		{Name: "failure_timestamp", Kind: dataset.KindTime},
		{Name: "repair_time", Kind: dataset.KindTime},
		{Name: "downtime", Kind: dataset.KindDuration},
		{Name: "cause", Kind: dataset.KindString},
	}
)

// TrainingRow is a sensor frame with its label.
type TrainingRow struct {
	SensorFrame
	Failure bool
}

// Result is the immutable outcome of one wagon run.
type Result struct {
	wagonID    string
	timeline   Timeline
	frames     []SensorFrame
	failures   []FailureEvent
	components []ComponentSnapshot
}

func (r *Result) WagonID() string    { return r.wagonID }
func (r *Result) Timeline() Timeline { return r.timeline }

// Frames returns a copy of the sensor frames in time order.
func (r *Result) Frames() []SensorFrame {
	out := make([]SensorFrame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Failures returns a copy of the failure log in start order.
func (r *Result) Failures() []FailureEvent {
	out := make([]FailureEvent, len(r.failures))
	copy(out, r.failures)
	return out
}

// Components returns the final component states in table order.
func (r *Result) Components() []ComponentSnapshot {
	out := make([]ComponentSnapshot, len(r.components))
	copy(out, r.components)
	return out
}

// Partition splits the failure log at cutoff: historic starts at or before it.
func (r *Result) Partition(cutoff time.Time) (historic, future []FailureEvent) {
	for _, event := range r.failures {
		if event.Start.After(cutoff) {
			future = append(future, event)
		} else {
			historic = append(historic, event)
		}
	}
	return historic, future
}

// FailedAt reports whether any failure event covers t.
func (r *Result) FailedAt(t time.Time) bool {
	for _, event := range r.failures {
		if event.Start.After(t) {
			break
		}
		if t.Before(event.RepairTime) {
			return true
		}
	}
	return false
}

// Records tags failure events with the wagon id.
func (r *Result) Records(events []FailureEvent) []FailureRecord {
	out := make([]FailureRecord, 0, len(events))
	for _, event := range events {
		out = append(out, FailureRecord{WagonID: r.wagonID, FailureEvent: event})
	}
	return out
}

// TrainingRows labels every frame according to mode.
func (r *Result) TrainingRows(mode LabelMode) ([]TrainingRow, error) {
	if mode == "" {
		mode = LabelOnset
	}
	if mode != LabelOnset && mode != LabelOutage {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLabelMode, mode)
	}
	onsets := make(map[int64]struct{}, len(r.failures))
	for _, event := range r.failures {
		onsets[event.Start.UnixNano()] = struct{}{}
	}
	rows := make([]TrainingRow, 0, len(r.frames))
	for _, frame := range r.frames {
		var label bool
		if mode == LabelOutage {
			label = r.FailedAt(frame.Timestamp)
		} else {
			_, label = onsets[frame.Timestamp.UnixNano()]
		}
		rows = append(rows, TrainingRow{SensorFrame: frame, Failure: label})
	}
	return rows, nil
}

// SensorTable renders frames with timestamps at or before cutoff.
// A zero cutoff keeps every frame.
func (r *Result) SensorTable(cutoff time.Time) (*dataset.Table, error) {
	table := dataset.NewTable(SensorSchema, len(r.frames))
	for _, f := range r.frames {
		if err := table.Append(f.Timestamp, f.Speed, f.Brake, f.Temp, f.Vibration, f.Battery, r.wagonID); err != nil {
			return nil, err
		}
	}
	if cutoff.IsZero() {
		return table, nil
	}
	return table.TimeFilter("timestamp", func(ts time.Time) bool { return !ts.After(cutoff) })
}

// TrainingTable renders labelled frames strictly before cutoff; a zero cutoff keeps all.
func (r *Result) TrainingTable(mode LabelMode, cutoff time.Time) (*dataset.Table, error) {
	rows, err := r.TrainingRows(mode)
	if err != nil {
		return nil, err
	}
	table := dataset.NewTable(TrainingSchema, len(rows))
	for _, row := range rows {
		if err := table.Append(row.Timestamp, row.Speed, row.Brake, row.Temp, row.Vibration, row.Battery, r.wagonID, row.Failure); err != nil {
			return nil, err
		}
	}
	if cutoff.IsZero() {
		return table, nil
	}
	return table.TimeFilter("timestamp", func(ts time.Time) bool { return ts.Before(cutoff) })
}

// FailureTable renders the whole failure log.
func (r *Result) FailureTable() (*dataset.Table, error) {
	return NewFailureTable(r.Records(r.failures)...)
}

// NewFailureTable renders failure records; no records yields an empty typed table.
func NewFailureTable(records ...FailureRecord) (*dataset.Table, error) {
	table := dataset.NewTable(FailureSchema, len(records))
	for _, rec := range records {
		if err := table.Append(rec.WagonID, rec.Start, rec.RepairTime, rec.Downtime, rec.Cause); err != nil {
			return nil, err
		}
	}
	return table, nil
}
