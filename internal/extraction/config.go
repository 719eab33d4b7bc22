package extraction

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
)

// Extraction modes.
const (
	ModeProcess = "process"
	ModeLocal   = "local"
)

// Env maps environment variable names for extraction configuration.
type Env struct {
	Mode    string
	Command string
	Timeout string
	TempDir string
}

// Config holds extraction worker configuration.
type Config struct {
	Mode          string   `toml:"mode"`
	Command       string   `toml:"command"`
	Args          []string `toml:"args"`
	Env           []string `toml:"env"`
	Timeout       string   `toml:"timeout"`
	MaxOutputSize string   `toml:"max_output_size"`
	TempDir       string   `toml:"temp_dir"`

	maxOutputSizeVal int64
}

// TimeoutDuration parses and returns the default extraction timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MaxOutputSizeBytes returns the parsed stdout limit.
func (c *Config) MaxOutputSizeBytes() int64 {
	return c.maxOutputSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Command != "" {
		c.Command = overlay.Command
	}
	if overlay.Args != nil {
		c.Args = overlay.Args
	}
	if overlay.Env != nil {
		c.Env = overlay.Env
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxOutputSize != "" {
		c.MaxOutputSize = overlay.MaxOutputSize
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
}

func (c *Config) loadDefaults() {
	if c.Mode == "" {
		c.Mode = ModeProcess
	}
	if c.Command == "" {
		c.Command = "deck-extract"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.MaxOutputSize == "" {
		c.MaxOutputSize = "64MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Mode != "" {
		if v := os.Getenv(env.Mode); v != "" {
			c.Mode = v
		}
	}
	if env.Command != "" {
		if v := os.Getenv(env.Command); v != "" {
			c.Command = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.TempDir != "" {
		if v := os.Getenv(env.TempDir); v != "" {
			c.TempDir = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeProcess, ModeLocal:
	default:
		return fmt.Errorf("invalid mode: %s (must be process or local)", c.Mode)
	}
	if c.Mode == ModeProcess && c.Command == "" {
		return fmt.Errorf("command required")
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	size, err := units.FromHumanSize(c.MaxOutputSize)
	if err != nil {
		return fmt.Errorf("invalid max_output_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_output_size must be positive")
	}
	c.maxOutputSizeVal = size

	return nil
}
