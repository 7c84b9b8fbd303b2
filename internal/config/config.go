// Package config assembles the harness configuration from defaults, an
// optional YAML file and EDITORHARNESS_* environment variables, in that
// order.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/core/protocol"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/sim"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EDITORHARNESS_"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Log    LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Sim    sim.Config      `yaml:"sim" envPrefix:"SIM_"`
	Remote protocol.Config `yaml:"remote" envPrefix:"REMOTE_"`
	Runner runner.Config   `yaml:"runner" envPrefix:"RUNNER_"`
}

type LogConfig struct {
	Level       string   `yaml:"level" env:"LEVEL"`
	Encoding    string   `yaml:"encoding" env:"ENCODING"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS" envSeparator:","`
}

func DefaultConfig() Config {
	lc := log.DefaultConfig()
	return Config{
		Log: LogConfig{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: lc.OutputPaths,
		},
		Sim:    sim.DefaultConfig(),
		Remote: protocol.DefaultConfig(),
		Runner: runner.DefaultConfig(),
	}
}

// Load reads file over the defaults, applies the environment and validates
// the result. An empty file name skips the file.
func Load(file string) (Config, error) {
	cfg := DefaultConfig()
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", file, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		errs = append(errs, fmt.Errorf("log encoding %q", c.Log.Encoding))
	}
	if c.Sim.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("sim frame rate %v", c.Sim.FrameRate))
	}
	if c.Sim.SubSteps < 1 {
		errs = append(errs, fmt.Errorf("sim sub steps %d", c.Sim.SubSteps))
	}
	if c.Runner.Batches < 1 {
		errs = append(errs, fmt.Errorf("runner batches %d", c.Runner.Batches))
	}
	if c.Runner.TestTimeout <= 0 || c.Runner.Level.LoadTimeout <= 0 || c.Runner.Level.GameModeTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Logger builds the configured logger.
func (c LogConfig) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return log.NewWithConfig(log.Config{Level: level, Encoding: c.Encoding, OutputPaths: c.OutputPaths})
}
