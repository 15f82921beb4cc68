// Package config holds the harness settings.
//
// Settings come from, in increasing priority: DefaultConfig, a JSON file,
// a .env file, L1SWEEP_* environment variables, and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarchlab/l1sweep/sweep"
)

// EnvPrefix starts every environment variable the harness reads.
const EnvPrefix = "L1SWEEP_"

// Config holds every harness setting.
type Config struct {
	// Simulator is the simulator executable. Default: ./L1simulate.
	Simulator string `json:"simulator"`

	// TracePrefix selects <prefix>_proc0.trace .. <prefix>_proc3.trace.
	// Default: app1.
	TracePrefix string `json:"trace_prefix"`

	// OutputDir receives one report per simulator run. Default: output.
	OutputDir string `json:"output_dir"`

	// ChartDir receives the <axis>_variation charts. Default: plots.
	ChartDir string `json:"chart_dir"`

	// ChartFormat is png, svg or pdf. Default: pdf.
	ChartFormat string `json:"chart_format"`

	// TablePath is the CSV results table. Empty disables it.
	TablePath string `json:"table_path"`

	// DatabasePath is the SQLite result store. Empty disables it.
	DatabasePath string `json:"database_path"`

	// Timeout bounds one simulator run, as a duration string. Empty or "0"
	// means no limit. Default: 5m.
	Timeout string `json:"timeout"`

	// Runs is the number of repeated runs at default parameters.
	// Default: 10.
	Runs int `json:"runs"`

	// Defaults hold the axes that are not being swept.
	Defaults sweep.Defaults `json:"defaults"`

	// Axes are the values swept on each axis.
	Axes sweep.Plan `json:"axes"`
}

// DefaultConfig returns the settings of the stock harness.
func DefaultConfig() *Config {
	return &Config{
		Simulator:   "./L1simulate",
		TracePrefix: "app1",
		OutputDir:   "output",
		ChartDir:    "plots",
		ChartFormat: "pdf",
		TablePath:   "sweep_results.csv",
		Timeout:     "5m",
		Runs:        10,
		Defaults:    sweep.DefaultParameters(),
		Axes:        sweep.DefaultPlan(),
	}
}

// LoadConfig loads a Config from a JSON file. Fields absent from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// TimeoutDuration parses Timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}

	return d, nil
}

// Validate checks that the settings can drive a sweep.
func (c *Config) Validate() error {
	if c.Simulator == "" {
		return errors.New("simulator must be set")
	}
	if c.TracePrefix == "" {
		return errors.New("trace_prefix must be set")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must be set")
	}
	if c.Runs < 0 {
		return fmt.Errorf("runs must be >= 0, got %d", c.Runs)
	}

	d, err := c.TimeoutDuration()
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", d)
	}

	switch c.ChartFormat {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("chart_format must be png, svg or pdf, got %q", c.ChartFormat)
	}

	if _, err := c.Defaults.Derive(sweep.CacheSize, c.Defaults.CacheSizeKB); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	for _, av := range c.Axes {
		if len(av.Values) == 0 {
			return fmt.Errorf("axes: %s has no values", av.Axis)
		}
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c

	clone.Axes = make(sweep.Plan, len(c.Axes))
	for i, av := range c.Axes {
		clone.Axes[i] = sweep.AxisValues{
			Axis:   av.Axis,
			Values: append([]float64(nil), av.Values...),
		}
	}

	return &clone
}

// ReadEnv collects the L1SWEEP_* variables from the .env file at dotenvPath,
// if it exists, overlaid with the process environment.
func ReadEnv(dotenvPath string) (map[string]string, error) {
	env := make(map[string]string)

	if dotenvPath != "" {
		fileEnv, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
		for k, v := range fileEnv {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}

	return env, nil
}

// ApplyEnv overrides settings from L1SWEEP_* variables. Unknown variables
// are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	strs := map[string]*string{
		"SIMULATOR":    &c.Simulator,
		"TRACE_PREFIX": &c.TracePrefix,
		"OUTPUT_DIR":   &c.OutputDir,
		"CHART_DIR":    &c.ChartDir,
		"CHART_FORMAT": &c.ChartFormat,
		"TABLE_PATH":   &c.TablePath,
		"DATABASE":     &c.DatabasePath,
		"TIMEOUT":      &c.Timeout,
	}

	for name, dst := range strs {
		if v, ok := env[EnvPrefix+name]; ok {
			*dst = v
		}
	}

	if v, ok := env[EnvPrefix+"RUNS"]; ok {
		runs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRUNS: %w", EnvPrefix, err)
		}
		c.Runs = runs
	}

	return nil
}

// Load builds a Config from defaults, the JSON file at path (if path is not
// empty) and the environment. It does not validate.
func Load(path, dotenvPath string) (*Config, error) {
	c := DefaultConfig()

	if path != "" {
		var err error
		c, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	env, err := ReadEnv(dotenvPath)
	if err != nil {
		return nil, err
	}

	if err := c.ApplyEnv(env); err != nil {
		return nil, err
	}

	return c, nil
}
