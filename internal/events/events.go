// Package events publishes job lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

// Type identifies a job event.
type Type string

const (
	JobCreated       Type = "job.created"
	JobStatusChanged Type = "job.status_changed"
	JobProgress      Type = "job.progress"
	JobCompleted     Type = "job.completed"
	JobFailed        Type = "job.failed"
	JobCancelled     Type = "job.cancel_requested"
)

// Event is the payload written for every job transition.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      Type           `json:"type"`
	JobID     uuid.UUID      `json:"job_id"`
	FileID    uuid.UUID      `json:"file_id"`
	UserID    string         `json:"user_id"`
	Status    string         `json:"status,omitempty"`
	Code      string         `json:"code,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates an event stamped with a fresh ID and the current time.
func New(typ Type, jobID, fileID uuid.UUID, userID string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		JobID:     jobID,
		FileID:    fileID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// log publisher otherwise.
func NewPublisher(cfg *Config, logger *slog.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		return NewLogPublisher(logger)
	}
	return NewKafkaPublisher(cfg, logger)
}

// Start registers shutdown hooks for publishers that hold connections.
func Start(p Publisher, lc *lifecycle.Coordinator) {
	if k, ok := p.(*KafkaPublisher); ok {
		k.Start(lc)
	}
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("system", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.Info(
		"job event",
		"type", e.Type,
		"job_id", e.JobID,
		"status", e.Status,
		"code", e.Code,
	)
	return nil
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}
