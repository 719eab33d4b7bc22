package jobs

import (
	"fmt"
	"os"
	"strconv"
)

// Env maps environment variable names for job orchestration.
type Env struct {
	MaxConcurrent string
}

// Config tunes the job orchestrator.
type Config struct {
	// MaxConcurrent bounds how many jobs extract and translate at once.
	// Jobs beyond the limit wait in the extracting state.
	MaxConcurrent int `toml:"max_concurrent"`
	// ExtractionRetries is the number of extra extraction attempts made
	// after a retryable failure.
	ExtractionRetries int `toml:"extraction_retries"`
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
	if overlay.MaxConcurrent > 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
	if overlay.ExtractionRetries > 0 {
		c.ExtractionRetries = overlay.ExtractionRetries
	}
}

func (c *Config) loadDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.ExtractionRetries <= 0 {
		c.ExtractionRetries = 1
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxConcurrent != "" {
		if v := os.Getenv(env.MaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxConcurrent = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive")
	}
	if c.ExtractionRetries > 1 {
		return fmt.Errorf("extraction_retries must be 0 or 1")
	}
	return nil
}
