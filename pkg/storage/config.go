package storage

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docker/go-units"
)

// Storage drivers.
const (
	DriverFilesystem = "filesystem"
	DriverMinio      = "minio"
	DriverMemory     = "memory"
)

// MinioConfig addresses an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Config contains blob storage configuration.
type Config struct {
	Driver string `toml:"driver"`
	// BasePath is the root directory for filesystem storage.
	// Default: ".data/blobs"
	BasePath         string      `toml:"base_path"`
	MaxUploadSize    string      `toml:"max_upload_size"`
	Minio            MinioConfig `toml:"minio"`
	maxUploadSizeVal int64
}

// Env maps environment variable names for storage configuration.
type Env struct {
	Driver         string
	BasePath       string
	MaxUploadSize  string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    string
}

// MaxUploadSizeBytes returns the parsed upload limit.
func (c *Config) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}
	if overlay.Minio.Endpoint != "" {
		c.Minio.Endpoint = overlay.Minio.Endpoint
	}
	if overlay.Minio.AccessKey != "" {
		c.Minio.AccessKey = overlay.Minio.AccessKey
	}
	if overlay.Minio.SecretKey != "" {
		c.Minio.SecretKey = overlay.Minio.SecretKey
	}
	if overlay.Minio.Bucket != "" {
		c.Minio.Bucket = overlay.Minio.Bucket
	}
	if overlay.Minio.UseSSL {
		c.Minio.UseSSL = true
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "deck-translate"
	}
}

func (c *Config) loadEnv(env *Env) {
	lookup := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	lookup(env.Driver, &c.Driver)
	lookup(env.BasePath, &c.BasePath)
	lookup(env.MaxUploadSize, &c.MaxUploadSize)
	lookup(env.MinioEndpoint, &c.Minio.Endpoint)
	lookup(env.MinioAccessKey, &c.Minio.AccessKey)
	lookup(env.MinioSecretKey, &c.Minio.SecretKey)
	lookup(env.MinioBucket, &c.Minio.Bucket)

	if env.MinioUseSSL != "" {
		if v := os.Getenv(env.MinioUseSSL); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Minio.UseSSL = b
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case DriverMinio:
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("minio.endpoint required")
		}
		if c.Minio.Bucket == "" {
			return fmt.Errorf("minio.bucket required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid driver: %s (must be filesystem, minio, or memory)", c.Driver)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	return nil
}
