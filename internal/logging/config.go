package logging

import "os"

// Env names the variables that override the [logging] table.
type Env struct {
	Level  string
	Format string
}

// Config is the [logging] table of recast.toml.
type Config struct {
	Level  Level  `toml:"level"`
	Format Format `toml:"format"`
	// File receives log output while the terminal UI owns the screen.
	File string `toml:"file"`
}

// Finalize fills in info/text, then lets env override the file values.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge copies the fields overlay sets; command-line flags arrive this way.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.File != "" {
		c.File = overlay.File
	}
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Level); v != "" {
		c.Level = Level(v)
	}
	if v := os.Getenv(env.Format); v != "" {
		c.Format = Format(v)
	}
}

func (c *Config) validate() error {
	if err := c.Level.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}
