package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	simulation "railfleet-sim/internal/simulation/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sim_runs (
	id TEXT PRIMARY KEY,
	seed BIGINT NOT NULL,
	step_seconds BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS sim_wagons (
	run_id TEXT NOT NULL REFERENCES sim_runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	wagon_id TEXT NOT NULL,
	wagon_type TEXT NOT NULL,
	capacity_tons INTEGER NOT NULL,
	length_m DOUBLE PRECISION NOT NULL,
	width_m DOUBLE PRECISION NOT NULL,
	height_m DOUBLE PRECISION NOT NULL,
	operator TEXT NOT NULL,
	owner TEXT NOT NULL,
	manufacture_date TIMESTAMPTZ NOT NULL,
	sensor_install_date TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, wagon_id)
);
CREATE TABLE IF NOT EXISTS sim_sensor_frames (
	run_id TEXT NOT NULL REFERENCES sim_runs(id) ON DELETE CASCADE,
	wagon_id TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	speed DOUBLE PRECISION NOT NULL,
	brake DOUBLE PRECISION NOT NULL,
	temp DOUBLE PRECISION NOT NULL,
	vibration DOUBLE PRECISION NOT NULL,
	battery DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, wagon_id, ts)
);
CREATE TABLE IF NOT EXISTS sim_failure_events (
	run_id TEXT NOT NULL REFERENCES sim_runs(id) ON DELETE CASCADE,
	wagon_id TEXT NOT NULL,
	wagon_seq INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	component TEXT NOT NULL,
	failure_ts TIMESTAMPTZ NOT NULL,
	repair_ts TIMESTAMPTZ NOT NULL,
	downtime_seconds BIGINT NOT NULL,
	cause TEXT NOT NULL,
	PRIMARY KEY (run_id, wagon_id, seq)
);
`

// EnsureSchema creates the run tables if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("postgres run repo: nil db")
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// RunRepository is a Postgres implementation of the run store.
type RunRepository struct {
	db     *sql.DB
	frames bool
}

// RepositoryOption configures the repository.
type RepositoryOption func(*RunRepository)

// WithFrames also persists every sensor frame.
func WithFrames(enabled bool) RepositoryOption {
	return func(repo *RunRepository) {
		repo.frames = enabled
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

// SaveRun upserts the run and replaces its wagons, failures and frames.
func (r *RunRepository) SaveRun(ctx context.Context, run simulation.Run) error {
	if r == nil || r.db == nil {
		return errors.New("postgres run repo: nil db")
	}
	if run.ID == "" {
		return errors.New("postgres run repo: empty run id")
	}
	if run.Seed > simulation.MaxSeed {
		return fmt.Errorf("%w: %d", simulation.ErrSeedOutOfRange, run.Seed)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO sim_runs (id, seed, step_seconds, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET
	seed = EXCLUDED.seed,
	step_seconds = EXCLUDED.step_seconds,
	created_at = EXCLUDED.created_at,
	updated_at = NOW()`,
		run.ID, int64(run.Seed), int64(run.Step/time.Second), run.CreatedAt); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, table := range []string{"sim_failure_events", "sim_sensor_frames", "sim_wagons"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, table), run.ID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	wagonStmt, err := tx.PrepareContext(ctx, `
INSERT INTO sim_wagons (
	run_id, seq, wagon_id, wagon_type, capacity_tons, length_m, width_m, height_m,
	operator, owner, manufacture_date, sensor_install_date
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer wagonStmt.Close()

	failureStmt, err := tx.PrepareContext(ctx, `
INSERT INTO sim_failure_events (
	run_id, wagon_id, wagon_seq, seq, component, failure_ts, repair_ts, downtime_seconds, cause
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer failureStmt.Close()

	var frameStmt *sql.Stmt
	if r.frames {
		frameStmt, err = tx.PrepareContext(ctx, `
INSERT INTO sim_sensor_frames (run_id, wagon_id, ts, speed, brake, temp, vibration, battery)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer frameStmt.Close()
	}

	for i, entry := range run.Entries {
		w := entry.Wagon
		if _, err := wagonStmt.ExecContext(ctx, run.ID, i, w.ID, w.Type.Name, w.Dimensions.CapacityTons,
			w.Dimensions.LengthM, w.Dimensions.WidthM, w.Dimensions.HeightM, w.Operator, w.Owner,
			w.ManufactureDate, w.SensorInstallDate); err != nil {
			_ = tx.Rollback()
			return err
		}
		if entry.Result == nil {
			continue
		}
		for j, event := range entry.Result.Failures() {
			if _, err := failureStmt.ExecContext(ctx, run.ID, w.ID, i, j, string(event.Component),
				event.Start, event.RepairTime, int64(event.Downtime/time.Second), event.Cause); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		if frameStmt == nil {
			continue
		}
		for _, f := range entry.Result.Frames() {
			if _, err := frameStmt.ExecContext(ctx, run.ID, w.ID, f.Timestamp,
				f.Speed, f.Brake, f.Temp, f.Vibration, f.Battery); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}

// ListFailures returns the failure log of a run ordered by wagon then start.
func (r *RunRepository) ListFailures(ctx context.Context, runID string) ([]simulation.FailureRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("postgres run repo: nil db")
	}
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sim_runs WHERE id = $1`, runID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simulation.ErrRunNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT wagon_id, component, failure_ts, repair_ts, downtime_seconds, cause
FROM sim_failure_events
WHERE run_id = $1
ORDER BY wagon_seq, seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []simulation.FailureRecord
	for rows.Next() {
		var (
			rec             simulation.FailureRecord
			component       string
			downtimeSeconds int64
		)
		if err := rows.Scan(&rec.WagonID, &component, &rec.Start, &rec.RepairTime, &downtimeSeconds, &rec.Cause); err != nil {
			return nil, err
		}
		rec.Component = simulation.ComponentID(component)
		rec.Start = rec.Start.UTC()
		rec.RepairTime = rec.RepairTime.UTC()
		rec.Downtime = time.Duration(downtimeSeconds) * time.Second
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ simulation.RunRepository = (*RunRepository)(nil)
