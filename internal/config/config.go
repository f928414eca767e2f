package config

import (
	"fmt"
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"rtadmit/internal/admission"
	"rtadmit/internal/sched"
)

// Config mirrors the YAML task set file.
type Config struct {
	Tasks      []TaskConfig     `yaml:"tasks"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Simulation SimulationConfig `yaml:"simulation"`
	Log        LogConfig        `yaml:"log"`
}

type TaskConfig struct {
	ID          string `yaml:"id"`
	Priority    int    `yaml:"priority"` // 0 is the highest priority
	ExecutionMs int64  `yaml:"execution_ms"`
	PeriodMs    int64  `yaml:"period_ms"`
}

type AnalysisConfig struct {
	ExactTest     string `yaml:"exact_test"`     // tda (by default) or wcs
	MaxIterations int    `yaml:"max_iterations"` // 0 = derived from the deadline
	Diagnostics   bool   `yaml:"diagnostics"`
}

type SimulationConfig struct {
	Hyperperiods int    `yaml:"hyperperiods"`   // 1 (by default)
	HorizonCapMs int64  `yaml:"horizon_cap_ms"` // 1000000 (by default)
	TraceCSV     string `yaml:"trace_csv"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // info (by default)
	Format string `yaml:"format"` // text (by default) or json
}

// If the config file is not given, we use default values
func defaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{
			ExactTest: "tda",
		},
		Simulation: SimulationConfig{
			Hyperperiods: 1,
			HorizonCapMs: 1_000_000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	// sanity clamps
	if cfg.Simulation.Hyperperiods <= 0 {
		cfg.Simulation.Hyperperiods = 1
	}
	if cfg.Simulation.HorizonCapMs <= 0 {
		cfg.Simulation.HorizonCapMs = 1_000_000
	}
	if cfg.Analysis.MaxIterations < 0 {
		cfg.Analysis.MaxIterations = 0
	}

	return cfg, nil
}

// TaskSet validates the configured tasks.
func (c Config) TaskSet() (*admission.TaskSet, error) {
	tasks := make([]admission.Task, len(c.Tasks))

	for ix, task := range c.Tasks {
		tasks[ix] = admission.Task{
			ID:              task.ID,
			PriorityRank:    task.Priority,
			ExecutionTimeMs: task.ExecutionMs,
			PeriodMs:        task.PeriodMs,
		}
	}

	return admission.NewTaskSet(tasks)
}

func (c Config) AnalysisOptions(logger logrus.FieldLogger) (*admission.Options, error) {
	exact, err := admission.ParseTestKind(c.Analysis.ExactTest)
	if err != nil {
		return nil, err
	}

	return &admission.Options{
			Logger:        logger,
			ExactTest:     exact,
			MaxIterations: c.Analysis.MaxIterations,
			Diagnostics:   c.Analysis.Diagnostics,
		},
		nil
}

func (c Config) SimulationOptions(logger logrus.FieldLogger) *sched.Options {
	return &sched.Options{
		Logger:       logger,
		Hyperperiods: c.Simulation.Hyperperiods,
		HorizonCapMs: c.Simulation.HorizonCapMs,
	}
}

// NewLogger builds a logrus logger from the log section.
func (c LogConfig) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}

	return logger, nil
}
