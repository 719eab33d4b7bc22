package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

// KafkaPublisher writes events to a Kafka topic keyed by job ID so every
// event for a job lands on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a writer for cfg. Connections are opened lazily.
func NewKafkaPublisher(cfg *Config, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			WriteTimeout: cfg.WriteTimeoutDuration(),
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger.With("system", "events", "topic", cfg.Topic),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := e.encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.JobID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Start closes the writer when the lifecycle shuts down.
func (p *KafkaPublisher) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := p.writer.Close(); err != nil {
			p.logger.Error("kafka writer close failed", "error", err)
			return
		}
		p.logger.Info("kafka writer closed")
	})
}
