package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"

	"preemptq/internal/sched"
)

// Config mirrors config.yml
type Config struct {
	SliceMS    int            `yaml:"slice_ms"`     // 5 (by default)
	StepCostUS int            `yaml:"step_cost_us"` // 100 (by default), CPU burned per demo step
	Timeouts   TimeoutsConfig `yaml:"timeouts_ms"`
	Log        LogConfig      `yaml:"log"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Scenario   []Submission   `yaml:"scenario"`
}

// TimeoutsConfig holds how long registrations of each level may wait before
// they expire. Immediate work is always expired and idle work never is.
type TimeoutsConfig struct {
	UserBlocking int `yaml:"user_blocking"` // 250
	Normal       int `yaml:"normal"`        // 5000
	Low          int `yaml:"low"`           // 10000
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics endpoint
}

// Submission is one piece of work the run command submits.
type Submission struct {
	Priority string `yaml:"priority"`
	Steps    int    `yaml:"steps"`
	AfterMS  int    `yaml:"after_ms"` // delay from start
}

// If the config file is not given, we use default values
func defaultConfig() Config {
	return Config{
		SliceMS:    5,
		StepCostUS: 100,
		Timeouts: TimeoutsConfig{
			UserBlocking: 250,
			Normal:       5000,
			Low:          10000,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Default returns the default configuration.
func Default() Config { return defaultConfig() }

// DefaultScenario submits normal work and interrupts it with a short burst
// of immediate work.
func DefaultScenario() []Submission {
	return []Submission{
		{Priority: "normal", Steps: 100},
		{Priority: "immediate", Steps: 10, AfterMS: 3},
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// sanity clamps
	if cfg.SliceMS <= 0 {
		cfg.SliceMS = 5
	}
	if cfg.StepCostUS < 0 {
		cfg.StepCostUS = 0
	}
	if cfg.Timeouts.UserBlocking <= 0 {
		cfg.Timeouts.UserBlocking = 250
	}
	if cfg.Timeouts.Normal <= 0 {
		cfg.Timeouts.Normal = 5000
	}
	if cfg.Timeouts.Low <= 0 {
		cfg.Timeouts.Low = 10000
	}

	return cfg, cfg.Validate()
}

// Validate checks the scenario.
func (c Config) Validate() error {
	var errs []error
	for i, s := range c.Scenario {
		if _, err := sched.ParsePriority(s.Priority); err != nil {
			errs = append(errs, fmt.Errorf("scenario[%d]: %w", i, err))
		}
		if s.Steps < 0 {
			errs = append(errs, fmt.Errorf("scenario[%d]: %w", i, sched.ErrNegativeSteps))
		}
		if s.AfterMS < 0 {
			errs = append(errs, fmt.Errorf("scenario[%d]: negative after_ms %d", i, s.AfterMS))
		}
	}
	return errors.Join(errs...)
}

// Slice returns the slice budget.
func (c Config) Slice() time.Duration {
	return time.Duration(c.SliceMS) * time.Millisecond
}

// StepCost returns the CPU time burned per demo step.
func (c Config) StepCost() time.Duration {
	return time.Duration(c.StepCostUS) * time.Microsecond
}

// TimeoutFor returns the configured timeout of p, and false for levels that
// are not configurable.
func (c Config) TimeoutFor(p sched.Priority) (time.Duration, bool) {
	switch p {
	case sched.UserBlocking:
		return time.Duration(c.Timeouts.UserBlocking) * time.Millisecond, true
	case sched.Normal:
		return time.Duration(c.Timeouts.Normal) * time.Millisecond, true
	case sched.Low:
		return time.Duration(c.Timeouts.Low) * time.Millisecond, true
	default:
		return 0, false
	}
}

// Submissions returns the configured scenario, or the default one.
func (c Config) Submissions() []Submission {
	if len(c.Scenario) == 0 {
		return DefaultScenario()
	}
	return c.Scenario
}
