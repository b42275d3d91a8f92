// Package config loads the balancing run configuration: YAML file first,
// then PALBP_* environment overrides, then tag validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"palbp/internal/ga"
	"palbp/internal/sa"
)

const EnvPrefix = "PALBP_"

type Config struct {
	// Robots flags each station as robot-assisted; its length is the
	// station count.
	Robots   []bool `yaml:"robots" env:"ROBOTS" envSeparator:"," validate:"min=1"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	Data struct {
		Archive string `yaml:"archive" env:"ARCHIVE"`
		Dir     string `yaml:"dir" env:"DIR"`
		Out     string `yaml:"out" env:"OUT" validate:"required"`
		Charts  bool   `yaml:"charts" env:"CHARTS"`
		Metrics string `yaml:"metrics" env:"METRICS"`
	} `yaml:"data" envPrefix:"DATA_"`

	Bench struct {
		Runs          int           `yaml:"runs" env:"RUNS" validate:"gte=1"`
		Seed          int64         `yaml:"seed" env:"SEED"`
		PerRunTimeout time.Duration `yaml:"per_run_timeout" env:"PER_RUN_TIMEOUT" validate:"gte=0"`
		Parallel      int           `yaml:"parallel" env:"PARALLEL" validate:"gte=1"`
		Algos         []string      `yaml:"algos" env:"ALGOS" envSeparator:"," validate:"min=1,dive,oneof=GA SA"`
		// Synthetic instances "line1xline2", used when no data directory is set.
		Synthetic []string `yaml:"synthetic" env:"SYNTHETIC" envSeparator:","`
		Density   float64  `yaml:"density" env:"DENSITY" validate:"gte=0,lte=1"`
	} `yaml:"bench" envPrefix:"BENCH_"`

	GA GA `yaml:"ga" envPrefix:"GA_"`
	SA SA `yaml:"sa" envPrefix:"SA_"`
}

type GA struct {
	Population         int     `yaml:"population" env:"POPULATION"`
	Generations        int     `yaml:"generations" env:"GENERATIONS"`
	Elite              int     `yaml:"elite" env:"ELITE"`
	TournamentSize     int     `yaml:"tournament_size" env:"TOURNAMENT_SIZE"`
	CrossoverRate      float64 `yaml:"crossover_rate" env:"CROSSOVER_RATE"`
	MutationRate       float64 `yaml:"mutation_rate" env:"MUTATION_RATE"`
	MutationRetries    int     `yaml:"mutation_retries" env:"MUTATION_RETRIES"`
	InitRetries        int     `yaml:"init_retries" env:"INIT_RETRIES"`
	ZoningPasses       int     `yaml:"zoning_passes" env:"ZONING_PASSES"`
	PlateauGenerations int     `yaml:"plateau_generations" env:"PLATEAU_GENERATIONS"`
	Workers            int     `yaml:"workers" env:"WORKERS"`
}

type SA struct {
	Iterations        int     `yaml:"iterations" env:"ITERATIONS"`
	IterationsPerTask int     `yaml:"iterations_per_task" env:"ITERATIONS_PER_TASK"`
	InitialTemp       float64 `yaml:"initial_temp" env:"INITIAL_TEMP"`
	FinalTemp         float64 `yaml:"final_temp" env:"FINAL_TEMP"`
	Alpha             float64 `yaml:"alpha" env:"ALPHA"`
	Neighborhood      string  `yaml:"neighborhood" env:"NEIGHBORHOOD"`
	SwapRetries       int     `yaml:"swap_retries" env:"SWAP_RETRIES"`
}

func Default() *Config {
	cfg := &Config{
		Robots:   []bool{false, true, true},
		LogLevel: "info",
	}
	cfg.Data.Out = "artifacts"
	cfg.Data.Charts = true
	cfg.Bench.Runs = 1
	cfg.Bench.Seed = 1000
	cfg.Bench.Parallel = 1
	cfg.Bench.Algos = []string{"GA"}
	cfg.Bench.Density = 0.15

	g := ga.DefaultConfig()
	cfg.GA = GA{
		Population:         g.Population,
		Generations:        g.Generations,
		Elite:              g.Elite,
		TournamentSize:     g.TournamentSize,
		CrossoverRate:      g.CrossoverRate,
		MutationRate:       g.MutationRate,
		MutationRetries:    g.MutationRetries,
		InitRetries:        g.InitRetries,
		ZoningPasses:       g.ZoningPasses,
		PlateauGenerations: g.PlateauGenerations,
		Workers:            g.Workers,
	}
	s := sa.DefaultConfig()
	cfg.SA = SA{
		Iterations:        s.Iterations,
		IterationsPerTask: s.IterationsPerTask,
		InitialTemp:       s.InitialTemp,
		FinalTemp:         s.FinalTemp,
		Alpha:             s.Alpha,
		Neighborhood:      string(s.Neighborhood),
		SwapRetries:       s.SwapRetries,
	}
	return cfg
}

// Load starts from Default, overlays the YAML file at path (skipped when
// path is empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, fmt.Errorf("env config: %w", aggErr.Errors[0])
		}
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the algorithm configurations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.GAConfig().Validate(); err != nil {
		return fmt.Errorf("ga: %w", err)
	}
	if err := c.SAConfig().Validate(); err != nil {
		return fmt.Errorf("sa: %w", err)
	}
	return nil
}

func (c *Config) GAConfig() ga.Config {
	return ga.Config{
		Population:         c.GA.Population,
		Generations:        c.GA.Generations,
		Elite:              c.GA.Elite,
		TournamentSize:     c.GA.TournamentSize,
		CrossoverRate:      c.GA.CrossoverRate,
		MutationRate:       c.GA.MutationRate,
		MutationRetries:    c.GA.MutationRetries,
		InitRetries:        c.GA.InitRetries,
		ZoningPasses:       c.GA.ZoningPasses,
		PlateauGenerations: c.GA.PlateauGenerations,
		Workers:            c.GA.Workers,
	}
}

func (c *Config) SAConfig() sa.Config {
	return sa.Config{
		Iterations:        c.SA.Iterations,
		IterationsPerTask: c.SA.IterationsPerTask,
		InitialTemp:       c.SA.InitialTemp,
		FinalTemp:         c.SA.FinalTemp,
		Alpha:             c.SA.Alpha,
		Neighborhood:      sa.Neighborhood(c.SA.Neighborhood),
		SwapRetries:       c.SA.SwapRetries,
	}
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
