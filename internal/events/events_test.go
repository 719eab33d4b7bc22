package events_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/internal/events"
)

func TestNewPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if _, ok := events.NewPublisher(&events.Config{}, logger).(*events.LogPublisher); !ok {
		t.Error("no brokers should select the log publisher")
	}

	cfg := &events.Config{Brokers: []string{"localhost:9092"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if _, ok := events.NewPublisher(cfg, logger).(*events.KafkaPublisher); !ok {
		t.Error("brokers should select the kafka publisher")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := events.NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

	e := events.New(events.JobFailed, uuid.New(), uuid.New(), "user-1")
	e.Status = "failed"
	e.Code = "FILE_PROCESSING_TIMEOUT"

	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	for _, want := range []string{"job.failed", e.JobID.String(), "FILE_PROCESSING_TIMEOUT"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q: %s", want, buf.String())
		}
	}
}

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_BROKERS", "k1:9092, k2:9092,")

	cfg := events.Config{}
	if err := cfg.Finalize(&events.Env{Brokers: "TEST_BROKERS"}); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.Topic != "deck.jobs" {
		t.Errorf("Topic = %q", cfg.Topic)
	}
}
