package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"railfleet-sim/internal/export"
	"railfleet-sim/internal/simulation/application"
	siminterfaces "railfleet-sim/internal/simulation/interfaces"
	simmetrics "railfleet-sim/internal/simulation/metrics"
)

func newGenerateCmd(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simulate a fleet and write the dataset to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := application.LoadConfig()
			if err != nil {
				return err
			}
			if err := applyGenerateFlags(cmd, &cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			frames, _ := cmd.Flags().GetBool("store-frames")
			return runGenerate(cmd, cfg, frames, logger)
		},
	}

	cmd.Flags().Int("wagons", 0, "Number of wagons to simulate")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().Int("workers", 0, "Wagons simulated concurrently")
	cmd.Flags().Int("future-days", 0, "Days before the simulation end that start the future partition")
	cmd.Flags().String("format", "", "Output format: csv, ndjson, parquet or xlsx")
	cmd.Flags().String("output", "", "Output root directory")
	cmd.Flags().String("label", "", "Training label mode: onset or outage")
	cmd.Flags().Bool("reports", false, "Render PDF wagon sheets and failure reports")
	cmd.Flags().Bool("per-wagon", false, "Write failures and metadata per wagon instead of combined files")
	cmd.Flags().String("storage", "", "Also persist the run: memory, sqlite or postgres")
	cmd.Flags().String("dsn", "", "Storage DSN")
	cmd.Flags().Bool("store-frames", false, "Persist sensor frames with the run")
	return cmd
}

func applyGenerateFlags(cmd *cobra.Command, cfg *application.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("wagons") {
		if cfg.Wagons, err = flags.GetInt("wagons"); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("future-days") {
		if cfg.FutureDays, err = flags.GetInt("future-days"); err != nil {
			return err
		}
	}
	if flags.Changed("format") {
		if cfg.Output.Format, err = flags.GetString("format"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.Output.Dir, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("label") {
		if cfg.LabelMode, err = flags.GetString("label"); err != nil {
			return err
		}
	}
	if flags.Changed("reports") {
		if cfg.Output.Reports, err = flags.GetBool("reports"); err != nil {
			return err
		}
	}
	if flags.Changed("per-wagon") {
		perWagon, err := flags.GetBool("per-wagon")
		if err != nil {
			return err
		}
		cfg.Output.CombinedFailures = !perWagon
		cfg.Output.CombinedMetadata = !perWagon
	}
	if flags.Changed("storage") {
		if cfg.Storage.Driver, err = flags.GetString("storage"); err != nil {
			return err
		}
	}
	if flags.Changed("dsn") {
		if cfg.Storage.DSN, err = flags.GetString("dsn"); err != nil {
			return err
		}
	}
	return nil
}

func runGenerate(cmd *cobra.Command, cfg application.Config, frames bool, logger *log.Logger) error {
	ctx := cmd.Context()
	started := time.Now()

	runner, err := newFleetRunner(cfg, logger, simmetrics.New(nil))
	if err != nil {
		return err
	}
	fleet, err := runner.Run(ctx, cfg.Wagons, cfg.Seed)
	if err != nil {
		return err
	}

	var opts []application.ExporterOption
	opts = append(opts, application.WithExportLogger(logger))
	if cfg.Output.Reports {
		opts = append(opts, application.WithReports(siminterfaces.NewPDFRenderer()))
	}
	exporter, err := application.NewExporter(export.NewFileSink(export.WithLogger(logger)),
		cfg.Output, cfg.OutputFormat(), cfg.Label(), opts...)
	if err != nil {
		return err
	}
	paths, err := exporter.Export(ctx, fleet)
	if err != nil {
		return err
	}

	if cfg.Storage.Driver != "" && cfg.Storage.Driver != "memory" {
		repo, db, err := openRepository(ctx, cfg.Storage, frames)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repo.SaveRun(ctx, fleet.Run()); err != nil {
			return fmt.Errorf("save run %s: %w", fleet.RunID, err)
		}
		logger.Printf("event=run_stored run_id=%s driver=%s", fleet.RunID, cfg.Storage.Driver)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d wagons, %d failures, %d files in %s (%s)\n",
		fleet.RunID, len(fleet.Entries), fleet.FailureCount(), len(paths), cfg.Output.Dir,
		time.Since(started).Round(time.Millisecond))
	for _, entry := range fleet.Entries {
		summary := entry.Result.Summary()
		fmt.Fprintf(out, "  %s %-8s failures=%-3d downtime=%-10s availability=%.4f\n",
			summary.WagonID, entry.Wagon.Type.Name, summary.Failures, summary.TotalDowntime, summary.Availability)
	}
	return nil
}
