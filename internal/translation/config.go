package translation

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Translator providers.
const (
	ProviderAgent = "agent"
	ProviderChat  = "chat"
)

// Env maps environment variable names for translation configuration.
type Env struct {
	Provider       string
	BatchSize      string
	MaxConcurrency string
	UnitTimeout    string
	AgentConfig    string
	ChatBaseURL    string
	ChatModel      string
	ChatAPIKey     string
}

// AgentConfig points at a go-agents JSON configuration.
type AgentConfig struct {
	ConfigFile string `toml:"config_file"`
}

// ChatConfig describes an OpenAI-compatible chat completions endpoint.
type ChatConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	Timeout     string  `toml:"timeout"`
	Temperature float64 `toml:"temperature"`
}

// TimeoutDuration parses and returns the HTTP client timeout.
func (c *ChatConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Config holds translation batcher and provider configuration.
type Config struct {
	Provider       string      `toml:"provider"`
	BatchSize      int         `toml:"batch_size"`
	MaxConcurrency int         `toml:"max_concurrency"`
	MaxAttempts    int         `toml:"max_attempts"`
	InitialBackoff string      `toml:"initial_backoff"`
	MaxBackoff     string      `toml:"max_backoff"`
	UnitTimeout    string      `toml:"unit_timeout"`
	Languages      []string    `toml:"languages"`
	Agent          AgentConfig `toml:"agent"`
	Chat           ChatConfig  `toml:"chat"`
}

// InitialBackoffDuration parses and returns the first retry delay.
func (c *Config) InitialBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.InitialBackoff)
	return d
}

// MaxBackoffDuration parses and returns the retry delay cap.
func (c *Config) MaxBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxBackoff)
	return d
}

// UnitTimeoutDuration parses and returns the per-unit call timeout.
func (c *Config) UnitTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.UnitTimeout)
	return d
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.MaxConcurrency != 0 {
		c.MaxConcurrency = overlay.MaxConcurrency
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.InitialBackoff != "" {
		c.InitialBackoff = overlay.InitialBackoff
	}
	if overlay.MaxBackoff != "" {
		c.MaxBackoff = overlay.MaxBackoff
	}
	if overlay.UnitTimeout != "" {
		c.UnitTimeout = overlay.UnitTimeout
	}
	if overlay.Languages != nil {
		c.Languages = overlay.Languages
	}
	if overlay.Agent.ConfigFile != "" {
		c.Agent.ConfigFile = overlay.Agent.ConfigFile
	}
	if overlay.Chat.BaseURL != "" {
		c.Chat.BaseURL = overlay.Chat.BaseURL
	}
	if overlay.Chat.Model != "" {
		c.Chat.Model = overlay.Chat.Model
	}
	if overlay.Chat.APIKey != "" {
		c.Chat.APIKey = overlay.Chat.APIKey
	}
	if overlay.Chat.Timeout != "" {
		c.Chat.Timeout = overlay.Chat.Timeout
	}
	if overlay.Chat.Temperature != 0 {
		c.Chat.Temperature = overlay.Chat.Temperature
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderChat
	}
	if c.BatchSize == 0 {
		c.BatchSize = 50
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff == "" {
		c.InitialBackoff = "1s"
	}
	if c.MaxBackoff == "" {
		c.MaxBackoff = "30s"
	}
	if c.UnitTimeout == "" {
		c.UnitTimeout = "60s"
	}
	if c.Chat.Timeout == "" {
		c.Chat.Timeout = "20s"
	}
	if c.Chat.Temperature == 0 {
		c.Chat.Temperature = 0.2
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.BatchSize != "" {
		if v := os.Getenv(env.BatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.BatchSize = n
			}
		}
	}
	if env.MaxConcurrency != "" {
		if v := os.Getenv(env.MaxConcurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxConcurrency = n
			}
		}
	}
	if env.UnitTimeout != "" {
		if v := os.Getenv(env.UnitTimeout); v != "" {
			c.UnitTimeout = v
		}
	}
	if env.AgentConfig != "" {
		if v := os.Getenv(env.AgentConfig); v != "" {
			c.Agent.ConfigFile = v
		}
	}
	if env.ChatBaseURL != "" {
		if v := os.Getenv(env.ChatBaseURL); v != "" {
			c.Chat.BaseURL = v
		}
	}
	if env.ChatModel != "" {
		if v := os.Getenv(env.ChatModel); v != "" {
			c.Chat.Model = v
		}
	}
	if env.ChatAPIKey != "" {
		if v := os.Getenv(env.ChatAPIKey); v != "" {
			c.Chat.APIKey = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderAgent:
		if c.Agent.ConfigFile == "" {
			return fmt.Errorf("agent.config_file required")
		}
	case ProviderChat:
		if c.Chat.BaseURL == "" {
			return fmt.Errorf("chat.base_url required")
		}
		if c.Chat.Model == "" {
			return fmt.Errorf("chat.model required")
		}
		if _, err := time.ParseDuration(c.Chat.Timeout); err != nil {
			return fmt.Errorf("invalid chat.timeout: %w", err)
		}
	default:
		return fmt.Errorf("invalid provider: %s (must be agent or chat)", c.Provider)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive")
	}
	for name, v := range map[string]string{
		"initial_backoff": c.InitialBackoff,
		"max_backoff":     c.MaxBackoff,
		"unit_timeout":    c.UnitTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	for i, lang := range c.Languages {
		c.Languages[i] = strings.ToLower(strings.TrimSpace(lang))
		if c.Languages[i] == "" {
			return fmt.Errorf("languages[%d] is empty", i)
		}
	}
	return nil
}
