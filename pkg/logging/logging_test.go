package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/JaimeStill/deck-translate/pkg/logging"
)

func TestLevel_ToSlogLevel(t *testing.T) {
	tests := []struct {
		level    logging.Level
		expected slog.Level
	}{
		{logging.LevelDebug, slog.LevelDebug},
		{logging.LevelInfo, slog.LevelInfo},
		{logging.LevelWarn, slog.LevelWarn},
		{logging.LevelError, slog.LevelError},
		{logging.Level("verbose"), slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.ToSlogLevel(); got != tt.expected {
				t.Errorf("ToSlogLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLevel_Validate(t *testing.T) {
	for _, l := range []logging.Level{logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError} {
		if err := l.Validate(); err != nil {
			t.Errorf("Validate(%q) returned error: %v", l, err)
		}
	}
	if err := logging.Level("trace").Validate(); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFormat_Validate(t *testing.T) {
	for _, f := range []logging.Format{logging.FormatText, logging.FormatJSON} {
		if err := f.Validate(); err != nil {
			t.Errorf("Validate(%q) returned error: %v", f, err)
		}
	}
	if err := logging.Format("xml").Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestConfig_Finalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &logging.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if cfg.Level != logging.LevelInfo || cfg.Format != logging.FormatText || cfg.Output != logging.OutputStdout {
			t.Errorf("defaults = %s/%s/%s, want info/text/stdout", cfg.Level, cfg.Format, cfg.Output)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_LOG_LEVEL", "debug")
		t.Setenv("TEST_LOG_FORMAT", "json")
		t.Setenv("TEST_LOG_OUTPUT", "stderr")

		cfg := &logging.Config{Level: logging.LevelWarn}
		env := &logging.Env{Level: "TEST_LOG_LEVEL", Format: "TEST_LOG_FORMAT", Output: "TEST_LOG_OUTPUT"}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if cfg.Level != logging.LevelDebug || cfg.Format != logging.FormatJSON || cfg.Output != logging.OutputStderr {
			t.Errorf("got %s/%s/%s, want debug/json/stderr", cfg.Level, cfg.Format, cfg.Output)
		}
	})

	invalid := []logging.Config{
		{Level: "loud"},
		{Format: "xml"},
		{Output: "syslog"},
	}
	for _, cfg := range invalid {
		if err := cfg.Finalize(nil); err == nil {
			t.Errorf("Finalize(%+v) accepted invalid config", cfg)
		}
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := &logging.Config{Level: logging.LevelInfo, Format: logging.FormatText}
	cfg.Merge(&logging.Config{Format: logging.FormatJSON})

	if cfg.Level != logging.LevelInfo {
		t.Errorf("Level = %s, want info", cfg.Level)
	}
	if cfg.Format != logging.FormatJSON {
		t.Errorf("Format = %s, want json", cfg.Format)
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&logging.Config{Level: logging.LevelWarn, Format: logging.FormatJSON}, &buf)

	logger.Info("dropped")
	logger.With("system", "jobs").Warn("job failed", "code", "TIMEOUT")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "job failed" || entry["system"] != "jobs" || entry["code"] != "TIMEOUT" {
		t.Errorf("entry = %v", entry)
	}
	if logger.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
}
