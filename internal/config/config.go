// Package config loads settings for the dcfifo command.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	FIFO FIFOConfig `toml:"fifo"`
	Log  LogConfig  `toml:"log"`
}

type FIFOConfig struct {
	Directory string `toml:"directory"`
	TimeoutMS int    `toml:"timeout_ms"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		FIFO: FIFOConfig{
			Directory: os.TempDir(),
			TimeoutMS: -1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for values the tool cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.FIFO.Directory == "" {
		errs = append(errs, errors.New("fifo.directory must not be empty"))
	}
	if c.FIFO.TimeoutMS < -1 {
		errs = append(errs, fmt.Errorf("fifo.timeout_ms must be -1 or greater, got %d", c.FIFO.TimeoutMS))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
