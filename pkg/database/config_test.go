package database_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/deck-translate/pkg/database"
)

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_DB_PORT", "6543")

	cfg := &database.Config{Name: "deck", User: "deck"}
	if err := cfg.Finalize(&database.Env{Port: "TEST_DB_PORT"}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Host != "localhost" || cfg.Port != 6543 {
		t.Errorf("host/port = %s/%d", cfg.Host, cfg.Port)
	}
	if cfg.ConnTimeoutDuration() != 5*time.Second {
		t.Errorf("conn timeout = %v", cfg.ConnTimeoutDuration())
	}
}

func TestConfig_FinalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
	}{
		{"missing name", database.Config{User: "u"}},
		{"missing user", database.Config{Name: "n"}},
		{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "forever"}},
		{"bad ssl mode", database.Config{Name: "n", User: "u", SSLMode: "sometimes"}},
		{"idle above open", database.Config{Name: "n", User: "u", MaxOpenConns: 2, MaxIdleConns: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfig_URL(t *testing.T) {
	cfg := &database.Config{Host: "db", Port: 5432, Name: "deck", User: "app", Password: "p@ss word"}

	got := cfg.URL("pgx5")
	want := "pgx5://app:p%40ss%20word@db:5432/deck?sslmode=disable"
	if got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	if !strings.Contains(cfg.Dsn(), "dbname=deck") {
		t.Errorf("Dsn = %q", cfg.Dsn())
	}

	cfg.SSLMode = "require"
	cfg.ApplicationName = "deck-translate"
	got = cfg.URL("pgx5")
	want = "pgx5://app:p%40ss%20word@db:5432/deck?application_name=deck-translate&sslmode=require"
	if got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}
