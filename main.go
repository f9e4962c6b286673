package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"railfleet-sim/internal/simulation/application"
	simulation "railfleet-sim/internal/simulation/domain"
	simmemory "railfleet-sim/internal/simulation/infrastructure/memory"
	simpostgres "railfleet-sim/internal/simulation/infrastructure/postgres"
	simsqlite "railfleet-sim/internal/simulation/infrastructure/sqlite"
	simmetrics "railfleet-sim/internal/simulation/metrics"
	wagon "railfleet-sim/internal/wagon/domain"
	"railfleet-sim/internal/wagon/infrastructure/fake"
)

var version = "0.1.0-dev"

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	rootCmd := &cobra.Command{
		Use:   "railsim",
		Short: "Rail freight wagon reliability and sensor telemetry simulator",
		Long: `railsim generates a synthetic wagon fleet, simulates component
failures and repairs over each wagon's service life, and writes sensor
telemetry, failure logs, metadata and labelled training data.

Configuration is read from the YAML file named by RAILSIM_CONFIG, then
RAILSIM_* environment variables, then command flags.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(logger),
		newServeCmd(logger),
		newTokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "railsim version %s\n", version)
		},
	}
}

func newFleetRunner(cfg application.Config, logger *log.Logger, m *simmetrics.Metrics) (*application.FleetRunner, error) {
	catalog, err := cfg.WagonCatalog()
	if err != nil {
		return nil, err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	engine, err := simulation.NewEngine(engineCfg)
	if err != nil {
		return nil, err
	}
	providers := func(seed uint64) wagon.Provider { return fake.NewProvider(seed) }
	return application.NewFleetRunner(catalog, cfg.Dates, providers, engine,
		application.WithFleetLogger(logger),
		application.WithFleetMetrics(m),
		application.WithWorkers(cfg.Workers),
		application.WithFutureDays(cfg.FutureDays),
	)
}

// openRepository returns the configured run store. db is nil for the memory driver.
func openRepository(ctx context.Context, storage application.StorageConfig, frames bool) (simulation.RunRepository, *sql.DB, error) {
	switch storage.Driver {
	case "", "memory":
		return simmemory.NewRunRepository(), nil, nil
	case "sqlite":
		db, err := simsqlite.Open(storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := simsqlite.InitSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return simsqlite.NewRunRepository(db, simsqlite.WithFrames(frames)), db, nil
	case "postgres":
		db, err := sql.Open("pgx", storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db ping error: %w", err)
		}
		if err := simpostgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return simpostgres.NewRunRepository(db, simpostgres.WithFrames(frames)), db, nil
	default:
		return nil, nil, fmt.Errorf("%w: storage driver %q", application.ErrInvalidConfig, storage.Driver)
	}
}
