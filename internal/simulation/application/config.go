package application

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"railfleet-sim/internal/export"
	simulation "railfleet-sim/internal/simulation/domain"
	wagon "railfleet-sim/internal/wagon/domain"
)

// OutputConfig defines the on-disk dataset layout.
type OutputConfig struct {
	Dir              string `yaml:"dir"`
	Format           string `yaml:"format"`
	SensorsDir       string `yaml:"sensors_dir"`
	FailuresDir      string `yaml:"failures_dir"`
	MetadataDir      string `yaml:"metadata_dir"`
	TrainingDir      string `yaml:"training_dir"`
	ReportsDir       string `yaml:"reports_dir"`
	CombinedFailures bool   `yaml:"combined_failures"`
	CombinedMetadata bool   `yaml:"combined_metadata"`
	Reports          bool   `yaml:"reports"`
}

// StorageConfig selects the run repository. Driver is memory, sqlite or postgres.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// HTTPConfig defines the serve API.
type HTTPConfig struct {
	Addr         string `yaml:"addr"`
	JWTSecret    string `yaml:"jwt_secret"`
	AuthDisabled bool   `yaml:"auth_disabled"`
	MaxWagons    int    `yaml:"max_wagons"`
}

// Config defines the simulator configuration.
type Config struct {
	Seed           uint64                       `yaml:"seed"`
	Wagons         int                          `yaml:"wagons"`
	Workers        int                          `yaml:"workers"`
	Step           time.Duration                `yaml:"step"`
	FutureDays     int                          `yaml:"future_days"`
	LabelMode      string                       `yaml:"label_mode"`
	Output         OutputConfig                 `yaml:"output"`
	Catalog        []wagon.WagonType            `yaml:"catalog"`
	Components     []simulation.ComponentHazard `yaml:"components"`
	Repair         simulation.DurationRange     `yaml:"repair"`
	InitialAgeDays simulation.DayRange          `yaml:"initial_age_days"`
	Dates          wagon.DatePolicy             `yaml:"dates"`
	Sensors        simulation.SensorProfile     `yaml:"sensors"`
	Storage        StorageConfig                `yaml:"storage"`
	HTTP           HTTPConfig                   `yaml:"http"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	engine := simulation.DefaultConfig()
	return Config{
		Seed:       42,
		Wagons:     10,
		Workers:    4,
		Step:       engine.Step,
		FutureDays: 30,
		LabelMode:  string(simulation.LabelOnset),
		Output: OutputConfig{
			Dir:              "data",
			Format:           string(export.FormatCSV),
			SensorsDir:       "sensor_data",
			FailuresDir:      "failure_data",
			MetadataDir:      "metadata",
			TrainingDir:      "training",
			ReportsDir:       "reports",
			CombinedFailures: true,
			CombinedMetadata: true,
		},
		Catalog:        wagon.DefaultTypes(),
		Components:     simulation.DefaultHazards(),
		Repair:         engine.Repair,
		InitialAgeDays: engine.InitialAge,
		Dates:          wagon.DefaultDatePolicy(),
		Sensors:        simulation.DefaultSensorProfile(),
		Storage:        StorageConfig{Driver: "memory"},
		HTTP:           HTTPConfig{Addr: ":8080", MaxWagons: 500},
	}
}

// LoadConfig loads defaults, then the YAML file named by RAILSIM_CONFIG,
// then environment overrides, and validates the result.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("RAILSIM_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	var err error
	if cfg.Seed, err = getenvUintDefault("RAILSIM_SEED", cfg.Seed); err != nil {
		return cfg, err
	}
	if cfg.Wagons, err = getenvIntDefault("RAILSIM_WAGONS", cfg.Wagons); err != nil {
		return cfg, err
	}
	if cfg.Workers, err = getenvIntDefault("RAILSIM_WORKERS", cfg.Workers); err != nil {
		return cfg, err
	}
	if cfg.FutureDays, err = getenvIntDefault("RAILSIM_FUTURE_DAYS", cfg.FutureDays); err != nil {
		return cfg, err
	}
	cfg.Output.Format = getenvDefault("RAILSIM_FORMAT", cfg.Output.Format)
	cfg.Output.Dir = getenvDefault("RAILSIM_OUTPUT_DIR", cfg.Output.Dir)
	cfg.Storage.Driver = getenvDefault("RAILSIM_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getenvDefault("RAILSIM_STORAGE_DSN", cfg.Storage.DSN)
	cfg.HTTP.Addr = getenvDefault("RAILSIM_HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.JWTSecret = getenvDefault("RAILSIM_JWT_SECRET", cfg.HTTP.JWTSecret)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks run-level settings and the derived domain configuration.
func (c Config) Validate() error {
	if c.Wagons < 0 {
		return fmt.Errorf("%w: wagons %d", ErrInvalidConfig, c.Wagons)
	}
	if c.Seed > simulation.MaxSeed {
		return fmt.Errorf("%w: seed %d", ErrInvalidConfig, c.Seed)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	}
	if c.FutureDays < 0 {
		return fmt.Errorf("%w: future_days %d", ErrInvalidConfig, c.FutureDays)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("railsim: output dir required")
	}
	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if _, err := simulation.ParseLabelMode(c.LabelMode); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case "", "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("%w: storage dsn required for %s", ErrInvalidConfig, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if _, err := c.WagonCatalog(); err != nil {
		return err
	}
	if err := c.Dates.Validate(); err != nil {
		return err
	}
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	return nil
}

// WagonCatalog builds the wagon type catalog.
func (c Config) WagonCatalog() (*wagon.Catalog, error) {
	return wagon.NewCatalog(c.Catalog)
}

// EngineConfig builds and validates the simulation engine configuration.
func (c Config) EngineConfig() (simulation.Config, error) {
	hazards, err := simulation.NewHazardTable(c.Components)
	if err != nil {
		return simulation.Config{}, err
	}
	engine := simulation.Config{
		Hazards:    hazards,
		Sensors:    c.Sensors,
		Step:       c.Step,
		Repair:     c.Repair,
		InitialAge: c.InitialAgeDays,
	}
	if err := engine.Validate(); err != nil {
		return simulation.Config{}, err
	}
	return engine, nil
}

// OutputFormat returns the parsed output format.
func (c Config) OutputFormat() export.Format {
	format, err := export.ParseFormat(c.Output.Format)
	if err != nil {
		return export.FormatCSV
	}
	return format
}

// Label returns the parsed training label mode.
func (c Config) Label() simulation.LabelMode {
	mode, err := simulation.ParseLabelMode(c.LabelMode)
	if err != nil {
		return simulation.LabelOnset
	}
	return mode
}

// Path joins a layout subdirectory onto the output root.
func (o OutputConfig) Path(sub string) string {
	return filepath.Join(o.Dir, sub)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err)
	}
	return parsed, nil
}

func getenvUintDefault(key string, fallback uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, value, err)
	}
	return parsed, nil
}
