package ratelimit

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Env maps environment variable names for rate limit configuration.
type Env struct {
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       string
}

// RuleConfig is the TOML form of a per-action limit.
type RuleConfig struct {
	Limit  int    `toml:"limit"`
	Window string `toml:"window"`
}

// RedisConfig holds the connection settings for the Redis store.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// Config holds rate limiter configuration.
type Config struct {
	Store         string                `toml:"store"`
	KeyPrefix     string                `toml:"key_prefix"`
	SweepInterval string                `toml:"sweep_interval"`
	Redis         RedisConfig           `toml:"redis"`
	Actions       map[string]RuleConfig `toml:"actions"`
}

// DefaultActions are applied for any action the configuration leaves out.
var DefaultActions = map[string]RuleConfig{
	ActionTranslate: {Limit: 30, Window: "1m"},
	ActionExtract:   {Limit: 10, Window: "1m"},
	ActionLogin:     {Limit: 5, Window: "15m"},
}

// SweepIntervalDuration parses and returns the memory store sweep interval.
func (c *Config) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Policies converts the configured actions into policies.
// Finalize must have succeeded first.
func (c *Config) Policies() map[string]Policy {
	policies := make(map[string]Policy, len(c.Actions))
	for action, rule := range c.Actions {
		window, _ := time.ParseDuration(rule.Window)
		policies[action] = Policy{Limit: rule.Limit, Window: window}
	}
	return policies
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
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.KeyPrefix != "" {
		c.KeyPrefix = overlay.KeyPrefix
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
	if overlay.Redis.Addr != "" {
		c.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.Password != "" {
		c.Redis.Password = overlay.Redis.Password
	}
	if overlay.Redis.DB != 0 {
		c.Redis.DB = overlay.Redis.DB
	}
	if overlay.Redis.PoolSize != 0 {
		c.Redis.PoolSize = overlay.Redis.PoolSize
	}
	if len(overlay.Actions) > 0 {
		if c.Actions == nil {
			c.Actions = make(map[string]RuleConfig, len(overlay.Actions))
		}
		maps.Copy(c.Actions, overlay.Actions)
	}
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "ratelimit:"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "1m"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Actions == nil {
		c.Actions = make(map[string]RuleConfig, len(DefaultActions))
	}
	for action, rule := range DefaultActions {
		if _, ok := c.Actions[action]; !ok {
			c.Actions[action] = rule
		}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Store != "" {
		if v := os.Getenv(env.Store); v != "" {
			c.Store = v
		}
	}
	if env.RedisAddr != "" {
		if v := os.Getenv(env.RedisAddr); v != "" {
			c.Redis.Addr = v
		}
	}
	if env.RedisPassword != "" {
		if v := os.Getenv(env.RedisPassword); v != "" {
			c.Redis.Password = v
		}
	}
	if env.RedisDB != "" {
		if v := os.Getenv(env.RedisDB); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Redis.DB = n
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid store: %s (must be memory or redis)", c.Store)
	}
	if _, err := time.ParseDuration(c.SweepInterval); err != nil {
		return fmt.Errorf("invalid sweep_interval: %w", err)
	}
	for action, rule := range c.Actions {
		if rule.Limit <= 0 {
			return fmt.Errorf("action %s: limit must be positive", action)
		}
		window, err := time.ParseDuration(rule.Window)
		if err != nil {
			return fmt.Errorf("action %s: invalid window: %w", action, err)
		}
		if window <= 0 {
			return fmt.Errorf("action %s: window must be positive", action)
		}
	}
	return nil
}
