// Package producers publishes committed reward postings to Kafka for
// downstream consumers (analytics, notifications). Publication happens after
// the database transaction commits and is best-effort: a publish failure
// never fails the posting.
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/stocky-rewards-ledger/internal/config"
)

type RewardPostedProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewRewardPostedProducer creates a producer for the reward events topic and
// ensures the topic exists.
func NewRewardPostedProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*RewardPostedProducer, error) {
	if cfg.RewardTopic == "" {
		return nil, fmt.Errorf("kafka reward topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for reward producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.RewardTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure reward topic %s exists: %w", cfg.RewardTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.RewardTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Publication must never block a posting response
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.RewardTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.RewardTopic, "count", len(messages))
			}
		},
	}

	return &RewardPostedProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.RewardTopic,
	}, nil
}

func (p *RewardPostedProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal reward message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish reward message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish reward message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published reward message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *RewardPostedProducer) Close() error {
	p.logger.Info("Closing reward Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
