// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/deck-translate/internal/events"
	"github.com/JaimeStill/deck-translate/internal/extraction"
	"github.com/JaimeStill/deck-translate/internal/jobs"
	"github.com/JaimeStill/deck-translate/internal/ratelimit"
	"github.com/JaimeStill/deck-translate/internal/translation"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
	"github.com/JaimeStill/deck-translate/pkg/database"
	"github.com/JaimeStill/deck-translate/pkg/logging"
	"github.com/JaimeStill/deck-translate/pkg/storage"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"

	// EnvServiceEnvironment selects development or production error responses.
	EnvServiceEnvironment = "SERVICE_ENVIRONMENT"

	// EnvServiceShutdownTimeout overrides the service shutdown timeout.
	EnvServiceShutdownTimeout = "SERVICE_SHUTDOWN_TIMEOUT"

	// EnvServiceVersion overrides the reported service version.
	EnvServiceVersion = "SERVICE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	SSLMode:         "DATABASE_SSL_MODE",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
}

var loggingEnv = &logging.Env{
	Level:  "LOGGING_LEVEL",
	Format: "LOGGING_FORMAT",
	Output: "LOGGING_OUTPUT",
}

var storageEnv = &storage.Env{
	Driver:         "STORAGE_DRIVER",
	BasePath:       "STORAGE_BASE_PATH",
	MaxUploadSize:  "STORAGE_MAX_UPLOAD_SIZE",
	MinioEndpoint:  "STORAGE_MINIO_ENDPOINT",
	MinioAccessKey: "STORAGE_MINIO_ACCESS_KEY",
	MinioSecretKey: "STORAGE_MINIO_SECRET_KEY",
	MinioBucket:    "STORAGE_MINIO_BUCKET",
	MinioUseSSL:    "STORAGE_MINIO_USE_SSL",
}

var rateLimitEnv = &ratelimit.Env{
	Store:         "RATE_LIMIT_STORE",
	RedisAddr:     "RATE_LIMIT_REDIS_ADDR",
	RedisPassword: "RATE_LIMIT_REDIS_PASSWORD",
	RedisDB:       "RATE_LIMIT_REDIS_DB",
}

var extractionEnv = &extraction.Env{
	Mode:    "EXTRACTION_MODE",
	Command: "EXTRACTION_COMMAND",
	Timeout: "EXTRACTION_TIMEOUT",
	TempDir: "EXTRACTION_TEMP_DIR",
}

var translationEnv = &translation.Env{
	Provider:       "TRANSLATION_PROVIDER",
	BatchSize:      "TRANSLATION_BATCH_SIZE",
	MaxConcurrency: "TRANSLATION_MAX_CONCURRENCY",
	UnitTimeout:    "TRANSLATION_UNIT_TIMEOUT",
	AgentConfig:    "TRANSLATION_AGENT_CONFIG",
	ChatBaseURL:    "TRANSLATION_CHAT_BASE_URL",
	ChatModel:      "TRANSLATION_CHAT_MODEL",
	ChatAPIKey:     "TRANSLATION_CHAT_API_KEY",
}

var eventsEnv = &events.Env{
	Brokers: "EVENTS_KAFKA_BROKERS",
	Topic:   "EVENTS_KAFKA_TOPIC",
}

var jobsEnv = &jobs.Env{
	MaxConcurrent: "JOBS_MAX_CONCURRENT",
}

// Config represents the root service configuration.
type Config struct {
	Environment     string             `toml:"environment"`
	Version         string             `toml:"version"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Server          ServerConfig       `toml:"server"`
	API             APIConfig          `toml:"api"`
	Database        database.Config    `toml:"database"`
	Logging         logging.Config     `toml:"logging"`
	Storage         storage.Config     `toml:"storage"`
	RateLimit       ratelimit.Config   `toml:"rate_limit"`
	Extraction      extraction.Config  `toml:"extraction"`
	Translation     translation.Config `toml:"translation"`
	Events          events.Config      `toml:"events"`
	Jobs            jobs.Config        `toml:"jobs"`
}

// ErrorEnvironment returns the error response mode.
func (c *Config) ErrorEnvironment() apperror.Environment {
	return apperror.Environment(c.Environment)
}

// Env returns the overlay environment name from SERVICE_ENV.
func (c *Config) Env() string {
	return os.Getenv(EnvServiceEnv)
}

// ShutdownTimeoutDuration parses and returns the shutdown timeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base configuration file, applies any environment-specific
// overlay, and finalizes the result.
func Load() (*Config, error) {
	cfg, err := load(BaseConfigFile)
	if err != nil {
		return nil, err
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.RateLimit.Finalize(rateLimitEnv); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if err := c.Extraction.Finalize(extractionEnv); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Translation.Finalize(translationEnv); err != nil {
		return fmt.Errorf("translation: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Jobs.Finalize(jobsEnv); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Environment != "" {
		c.Environment = overlay.Environment
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Database.Merge(&overlay.Database)
	c.Logging.Merge(&overlay.Logging)
	c.Storage.Merge(&overlay.Storage)
	c.RateLimit.Merge(&overlay.RateLimit)
	c.Extraction.Merge(&overlay.Extraction)
	c.Translation.Merge(&overlay.Translation)
	c.Events.Merge(&overlay.Events)
	c.Jobs.Merge(&overlay.Jobs)
}

func (c *Config) loadDefaults() {
	if c.Environment == "" {
		c.Environment = string(apperror.Production)
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvServiceEnvironment); v != "" {
		c.Environment = v
	}
	if v := os.Getenv(EnvServiceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvServiceVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	switch apperror.Environment(c.Environment) {
	case apperror.Development, apperror.Production:
	default:
		return fmt.Errorf("invalid environment: %s (must be development or production)", c.Environment)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
