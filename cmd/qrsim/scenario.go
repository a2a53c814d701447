package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/qrsim/internal/config"
	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/integrators"
	"github.com/san-kum/qrsim/internal/logging"
	"github.com/san-kum/qrsim/internal/metrics"
	"github.com/san-kum/qrsim/internal/qrange"
	"github.com/san-kum/qrsim/internal/sim"
	"github.com/san-kum/qrsim/internal/storage"
)

// loadScenario resolves the configuration in order of precedence: flags,
// QRSIM_* environment, config file, preset, built-in default.
func loadScenario(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, name := config.DefaultConfig(), "reference"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	// config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, name, nil
}

// baseConfig is the configuration for commands that only read the archive.
func baseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("passes") {
		cfg.Passes = passes
	}
	if flags.Changed("lookback") {
		cfg.Lookback = lookback
	}
	if flags.Changed("g") {
		cfg.G = gConst
	}
	if flags.Changed("dt") {
		cfg.SetTimeStep(dt)
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("force-law") {
		cfg.ForceLaw = forceLaw
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir
	}
	return nil
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{Level: level, Format: cfg.LogFormat, Output: os.Stderr}), nil
}

// newScheduler builds a scheduler over a fresh store with the default
// conservation metrics attached.
func newScheduler(cfg *config.Config, log logging.Logger) (*sim.Scheduler, error) {
	store, err := qrange.New[dynamo.Snapshot](cfg.Backend)
	if err != nil {
		return nil, err
	}
	gravity := cfg.Gravity()
	s, err := sim.New(store, integrators.NewPropagator(gravity), cfg.Seed(), sim.Config{Lookback: cfg.Lookback})
	if err != nil {
		return nil, err
	}
	s.SetLogger(log)
	for _, m := range metrics.Defaults(gravity) {
		s.AddMetric(m)
	}
	return s, nil
}

func openArchive(ctx context.Context, cfg *config.Config) (storage.Archive, error) {
	archive, err := storage.NewArchive(archiveKind, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := archive.Init(ctx); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return archive, nil
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
