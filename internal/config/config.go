// Package config loads batch defaults from an optional TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	units "github.com/docker/go-units"
	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"

	"recast/internal/logging"
	"recast/internal/policy"
)

const (
	// BaseConfigFile is read from the working directory when --config is not given.
	BaseConfigFile = "recast.toml"

	EnvWorkers   = "RECAST_WORKERS"
	EnvOverwrite = "RECAST_OVERWRITE"
	EnvLogLevel  = "RECAST_LOG_LEVEL"
	EnvLogFormat = "RECAST_LOG_FORMAT"

	DefaultWorkers      = 4
	DefaultPreviewWidth = 48
	maxWorkers          = 256
)

// Config is the root configuration.
type Config struct {
	Batch   BatchConfig    `toml:"batch"`
	Logging logging.Config `toml:"logging"`
	Preview PreviewConfig  `toml:"preview"`
}

type BatchConfig struct {
	Workers        int     `toml:"workers"`
	Overwrite      string  `toml:"overwrite"`
	MaxInputSize   string  `toml:"max_input_size"`
	DefaultQuality float64 `toml:"default_quality"`
}

type PreviewConfig struct {
	Width int `toml:"width"`
}

// Load reads path, or BaseConfigFile when path is empty. A missing default
// file yields an empty config; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = BaseConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the
// configuration. Every problem found is reported, not just the first.
func (c *Config) Finalize() error {
	var errs *multierror.Error

	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.Logging.Finalize(&logging.Env{Level: EnvLogLevel, Format: EnvLogFormat}); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Validate re-checks a finalized configuration after command-line values
// have been merged in.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if err := c.Logging.Finalize(nil); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Merge applies values from overlay that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Batch.Workers != 0 {
		c.Batch.Workers = overlay.Batch.Workers
	}
	if overlay.Batch.Overwrite != "" {
		c.Batch.Overwrite = overlay.Batch.Overwrite
	}
	if overlay.Batch.MaxInputSize != "" {
		c.Batch.MaxInputSize = overlay.Batch.MaxInputSize
	}
	if overlay.Batch.DefaultQuality != 0 {
		c.Batch.DefaultQuality = overlay.Batch.DefaultQuality
	}
	if overlay.Preview.Width != 0 {
		c.Preview.Width = overlay.Preview.Width
	}
	c.Logging.Merge(&overlay.Logging)
}

// OverwriteMode returns the configured collision mode.
func (c *Config) OverwriteMode() policy.Mode {
	mode, _ := policy.ParseMode(c.Batch.Overwrite)
	return mode
}

// MaxInputBytes returns the input size limit, 0 when unlimited.
func (c *Config) MaxInputBytes() int64 {
	if c.Batch.MaxInputSize == "" {
		return 0
	}
	n, _ := units.FromHumanSize(c.Batch.MaxInputSize)
	return n
}

// Quality returns the configured default quality, or nil for format defaults.
func (c *Config) Quality() *float64 {
	if c.Batch.DefaultQuality == 0 {
		return nil
	}
	q := c.Batch.DefaultQuality
	return &q
}

func (c *Config) loadDefaults() {
	if c.Batch.Workers == 0 {
		c.Batch.Workers = DefaultWorkers
	}
	if c.Batch.Overwrite == "" {
		c.Batch.Overwrite = policy.Ask.String()
	}
	if c.Preview.Width == 0 {
		c.Preview.Width = DefaultPreviewWidth
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Batch.Workers = n
	}
	if v := os.Getenv(EnvOverwrite); v != "" {
		c.Batch.Overwrite = v
	}
	return nil
}

func (c *Config) validate() error {
	var errs *multierror.Error

	if c.Batch.Workers < 1 || c.Batch.Workers > maxWorkers {
		errs = multierror.Append(errs, fmt.Errorf("batch.workers %d must be between 1 and %d", c.Batch.Workers, maxWorkers))
	}
	if _, err := policy.ParseMode(c.Batch.Overwrite); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("batch.overwrite: %w", err))
	}
	if c.Batch.MaxInputSize != "" {
		if n, err := units.FromHumanSize(c.Batch.MaxInputSize); err != nil || n <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("batch.max_input_size %q is not a positive size", c.Batch.MaxInputSize))
		}
	}
	if q := c.Batch.DefaultQuality; q != 0 && (math.IsNaN(q) || q < 0 || q > 100) {
		errs = multierror.Append(errs, fmt.Errorf("batch.default_quality %g must be in (0,100]", q))
	}
	if c.Preview.Width < 8 || c.Preview.Width > 400 {
		errs = multierror.Append(errs, fmt.Errorf("preview.width %d must be between 8 and 400", c.Preview.Width))
	}

	return errs.ErrorOrNil()
}
