package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

const base = `
[database]
name = "deck"
user = "deck"

[translation.chat]
base_url = "http://localhost:11434/v1"
model = "test"
`

func writeConfig(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvServiceEnv, "")
	writeConfig(t, config.BaseConfigFile, base)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ErrorEnvironment() != apperror.Production {
		t.Errorf("environment = %q, want production", cfg.Environment)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("base path = %q", cfg.API.BasePath)
	}
	if cfg.API.Pagination.DefaultPageSize != 20 || cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination = %+v", cfg.API.Pagination)
	}
	if cfg.Jobs.MaxConcurrent != 4 {
		t.Errorf("jobs.max_concurrent = %d", cfg.Jobs.MaxConcurrent)
	}
	if cfg.Storage.MaxUploadSizeBytes() != 100_000_000 {
		t.Errorf("max upload = %d", cfg.Storage.MaxUploadSizeBytes())
	}
}

func TestLoad_WithOverlay(t *testing.T) {
	t.Chdir(t.TempDir())
	writeConfig(t, config.BaseConfigFile, base)
	writeConfig(t, "config.test.toml", `
environment = "development"
shutdown_timeout = "60s"

[server]
port = 9090

[jobs]
max_concurrent = 2
`)
	t.Setenv(config.EnvServiceEnv, "test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() with overlay failed: %v", err)
	}

	if cfg.ErrorEnvironment() != apperror.Development {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.ShutdownTimeout != "60s" {
		t.Errorf("ShutdownTimeout = %q, want 60s", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Jobs.MaxConcurrent != 2 {
		t.Errorf("jobs.max_concurrent = %d, want 2", cfg.Jobs.MaxConcurrent)
	}
	if cfg.Database.Name != "deck" {
		t.Error("overlay dropped base values")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvServiceEnv, "")
	writeConfig(t, config.BaseConfigFile, base)

	t.Setenv("SERVICE_ENVIRONMENT", "development")
	t.Setenv("JOBS_MAX_CONCURRENT", "9")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("API_PAGINATION_MAX_PAGE_SIZE", "50")
	t.Setenv("API_BASE_PATH", "v1/")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.Jobs.MaxConcurrent != 9 {
		t.Errorf("jobs.max_concurrent = %d", cfg.Jobs.MaxConcurrent)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("storage.driver = %q", cfg.Storage.Driver)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("max_page_size = %d", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.API.BasePath != "/v1" {
		t.Errorf("base path = %q, want /v1", cfg.API.BasePath)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid toml", "environment = "},
		{"invalid environment", `environment = "staging"` + base},
		{"missing database name", `
[database]
user = "deck"

[translation.chat]
base_url = "http://x"
model = "m"
`},
		{"invalid jobs", base + `
[jobs]
extraction_retries = 5
`},
		{"root base path", base + `
[api]
base_path = "/"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(config.EnvServiceEnv, "")
			writeConfig(t, config.BaseConfigFile, tt.content)

			if _, err := config.Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := config.Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}
