package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	simulation "railfleet-sim/internal/simulation/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sim_runs (
	id TEXT PRIMARY KEY,
	seed INTEGER NOT NULL,
	step_seconds INTEGER NOT NULL,
	created_at_us INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sim_wagons (
	run_id TEXT NOT NULL REFERENCES sim_runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	wagon_id TEXT NOT NULL,
	wagon_type TEXT NOT NULL,
	capacity_tons INTEGER NOT NULL,
	length_m REAL NOT NULL,
	width_m REAL NOT NULL,
	height_m REAL NOT NULL,
	operator TEXT NOT NULL,
	owner TEXT NOT NULL,
	manufacture_date_us INTEGER NOT NULL,
	sensor_install_date_us INTEGER NOT NULL,
	PRIMARY KEY (run_id, wagon_id)
);
CREATE TABLE IF NOT EXISTS sim_sensor_frames (
	run_id TEXT NOT NULL,
	wagon_id TEXT NOT NULL,
	ts_us INTEGER NOT NULL,
	speed REAL NOT NULL,
	brake REAL NOT NULL,
	temp REAL NOT NULL,
	vibration REAL NOT NULL,
	battery REAL NOT NULL,
	PRIMARY KEY (run_id, wagon_id, ts_us)
);
CREATE TABLE IF NOT EXISTS sim_failure_events (
	run_id TEXT NOT NULL,
	wagon_id TEXT NOT NULL,
	wagon_seq INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	component TEXT NOT NULL,
	start_us INTEGER NOT NULL,
	repair_us INTEGER NOT NULL,
	downtime_seconds INTEGER NOT NULL,
	cause TEXT NOT NULL,
	PRIMARY KEY (run_id, wagon_id, seq)
);
`

// Open opens a SQLite database with a single connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// InitSchema creates the run tables if missing.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RunRepository stores runs in SQLite.
type RunRepository struct {
	db     *sql.DB
	frames bool
}

// RepositoryOption configures the repository.
type RepositoryOption func(*RunRepository)

// WithFrames also persists every sensor frame.
func WithFrames(enabled bool) RepositoryOption {
	return func(r *RunRepository) {
		r.frames = enabled
	}
}

// NewRunRepository constructs a repository.
func NewRunRepository(db *sql.DB, opts ...RepositoryOption) *RunRepository {
	repo := &RunRepository{db: db}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// SaveRun writes the run, its wagons, failures and optionally frames in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run simulation.Run) error {
	if r == nil || r.db == nil {
		return errors.New("sqlite run repo: nil db")
	}
	if run.ID == "" {
		return errors.New("sqlite run repo: empty run id")
	}
	if run.Seed > simulation.MaxSeed {
		return fmt.Errorf("%w: %d", simulation.ErrSeedOutOfRange, run.Seed)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.saveRun(ctx, tx, run); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *RunRepository) saveRun(ctx context.Context, tx *sql.Tx, run simulation.Run) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM sim_failure_events WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sim_sensor_frames WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sim_wagons WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO sim_runs (id, seed, step_seconds, created_at_us) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET seed = excluded.seed, step_seconds = excluded.step_seconds, created_at_us = excluded.created_at_us`,
		run.ID, int64(run.Seed), int64(run.Step/time.Second), run.CreatedAt.UnixMicro()); err != nil {
		return err
	}

	wagonStmt, err := tx.PrepareContext(ctx, `
INSERT INTO sim_wagons (
	run_id, seq, wagon_id, wagon_type, capacity_tons, length_m, width_m, height_m,
	operator, owner, manufacture_date_us, sensor_install_date_us
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer wagonStmt.Close()

	failureStmt, err := tx.PrepareContext(ctx, `
INSERT INTO sim_failure_events (
	run_id, wagon_id, wagon_seq, seq, component, start_us, repair_us, downtime_seconds, cause
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer failureStmt.Close()

	var frameStmt *sql.Stmt
	if r.frames {
		frameStmt, err = tx.PrepareContext(ctx, `
INSERT INTO sim_sensor_frames (run_id, wagon_id, ts_us, speed, brake, temp, vibration, battery)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer frameStmt.Close()
	}

	for i, entry := range run.Entries {
		w := entry.Wagon
		if _, err := wagonStmt.ExecContext(ctx, run.ID, i, w.ID, w.Type.Name, w.Dimensions.CapacityTons,
			w.Dimensions.LengthM, w.Dimensions.WidthM, w.Dimensions.HeightM, w.Operator, w.Owner,
			w.ManufactureDate.UnixMicro(), w.SensorInstallDate.UnixMicro()); err != nil {
			return fmt.Errorf("wagon %s: %w", w.ID, err)
		}
		if entry.Result == nil {
			continue
		}
		for j, event := range entry.Result.Failures() {
			if _, err := failureStmt.ExecContext(ctx, run.ID, w.ID, i, j, string(event.Component),
				event.Start.UnixMicro(), event.RepairTime.UnixMicro(), int64(event.Downtime/time.Second), event.Cause); err != nil {
				return fmt.Errorf("failure %s/%d: %w", w.ID, j, err)
			}
		}
		if frameStmt == nil {
			continue
		}
		for _, f := range entry.Result.Frames() {
			if _, err := frameStmt.ExecContext(ctx, run.ID, w.ID, f.Timestamp.UnixMicro(),
				f.Speed, f.Brake, f.Temp, f.Vibration, f.Battery); err != nil {
				return fmt.Errorf("frame %s/%s: %w", w.ID, f.Timestamp.Format(time.RFC3339), err)
			}
		}
	}
	return nil
}

// ListFailures returns the failure log of a run ordered by wagon then start.
func (r *RunRepository) ListFailures(ctx context.Context, runID string) ([]simulation.FailureRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sqlite run repo: nil db")
	}
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sim_runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simulation.ErrRunNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT wagon_id, component, start_us, repair_us, downtime_seconds, cause
FROM sim_failure_events
WHERE run_id = ?
ORDER BY wagon_seq, seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []simulation.FailureRecord
	for rows.Next() {
		var (
			rec               simulation.FailureRecord
			component         string
			startUS, repairUS int64
			downtimeSeconds   int64
		)
		if err := rows.Scan(&rec.WagonID, &component, &startUS, &repairUS, &downtimeSeconds, &rec.Cause); err != nil {
			return nil, err
		}
		rec.Component = simulation.ComponentID(component)
		rec.Start = time.UnixMicro(startUS).UTC()
		rec.RepairTime = time.UnixMicro(repairUS).UTC()
		rec.Downtime = time.Duration(downtimeSeconds) * time.Second
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ simulation.RunRepository = (*RunRepository)(nil)
