package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"railfleet-sim/internal/export"
	simulation "railfleet-sim/internal/simulation/domain"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RAILSIM_CONFIG", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Step != 24*time.Hour || cfg.FutureDays != 30 || cfg.Workers != 4 {
		t.Fatalf("defaults=%+v", cfg)
	}
	if cfg.OutputFormat() != export.FormatCSV || cfg.Label() != simulation.LabelOnset {
		t.Fatalf("format=%s label=%s", cfg.OutputFormat(), cfg.Label())
	}
	if len(cfg.Components) != 4 {
		t.Fatalf("components=%d", len(cfg.Components))
	}
}

func TestLoadConfigYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railsim.yaml")
	content := `
seed: 7
wagons: 3
step: 6h
label_mode: outage
output:
  format: parquet
  combined_failures: false
repair:
  min: 1h
  max: 2h
components:
  - name: brakes
    lambda0: 0.001
    lifetime: 700
    beta: 1.5
  - name: axle
    lambda0: 0.002
    lifetime: 900
    beta: 2
  - name: cooling
    lambda0: 0.0005
    lifetime: 400
    beta: 2.5
sensors:
  speed:
    drift:
      component: axle
      per_lifetime: -1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RAILSIM_CONFIG", path)
	t.Setenv("RAILSIM_WAGONS", "12")
	t.Setenv("RAILSIM_FORMAT", "ndjson")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seed != 7 || cfg.Wagons != 12 || cfg.Step != 6*time.Hour {
		t.Fatalf("seed=%d wagons=%d step=%s", cfg.Seed, cfg.Wagons, cfg.Step)
	}
	if cfg.OutputFormat() != export.FormatNDJSON || cfg.Label() != simulation.LabelOutage {
		t.Fatalf("format=%s label=%s", cfg.OutputFormat(), cfg.Label())
	}
	if cfg.Output.CombinedFailures || !cfg.Output.CombinedMetadata {
		t.Fatalf("output=%+v", cfg.Output)
	}
	if cfg.Repair.Min != time.Hour || cfg.Repair.Max != 2*time.Hour {
		t.Fatalf("repair=%+v", cfg.Repair)
	}
	engine, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	if got := engine.Hazards.Components(); len(got) != 3 || got[1] != simulation.ComponentAxle {
		t.Fatalf("components=%v", got)
	}
	if cfg.Sensors.Speed.Nominal.Mean != 60 {
		t.Fatalf("partial sensor override lost defaults: %+v", cfg.Sensors.Speed)
	}
}

func TestLoadConfigRejectsMalformedEnv(t *testing.T) {
	cases := []struct{ key, value string }{
		{"RAILSIM_SEED", "abc"},
		{"RAILSIM_SEED", "-1"},
		{"RAILSIM_WAGONS", "ten"},
		{"RAILSIM_WORKERS", "2.5"},
		{"RAILSIM_FUTURE_DAYS", "30d"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv("RAILSIM_CONFIG", "")
			t.Setenv(tc.key, tc.value)
			if _, err := LoadConfig(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConfigValidateRejectsDriftOnDroppedComponent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Components = cfg.Components[:1]
	if err := cfg.Validate(); !errors.Is(err, simulation.ErrUnknownComponent) {
		t.Fatalf("expected ErrUnknownComponent, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"workers", func(c *Config) { c.Workers = 0 }, ErrInvalidConfig},
		{"seed", func(c *Config) { c.Seed = simulation.MaxSeed + 1 }, ErrInvalidConfig},
		{"format", func(c *Config) { c.Output.Format = "avro" }, export.ErrUnsupportedFormat},
		{"label", func(c *Config) { c.LabelMode = "daily" }, simulation.ErrInvalidLabelMode},
		{"storage", func(c *Config) { c.Storage = StorageConfig{Driver: "sqlite"} }, ErrInvalidConfig},
		{"driver", func(c *Config) { c.Storage.Driver = "mongo" }, ErrInvalidConfig},
		{"step", func(c *Config) { c.Step = 5 * time.Hour }, simulation.ErrUnsupportedStep},
		{"hazard", func(c *Config) { c.Components[0].BaseRate = 2 }, simulation.ErrInvalidHazard},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
