package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"raydium-swap-monitor/internal/domain"
)

// DefaultKafkaTopic receives leaderboard reports.
const DefaultKafkaTopic = "raydium.leaderboard"

// KafkaSink publishes each report as one JSON message keyed by report ID.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink connects a synchronous producer to brokers.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.ClientID = "raydium-swap-monitor"
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, topic), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &KafkaSink{producer: producer, topic: topic}
}

// Emit publishes the report. The context is not consulted; the producer
// applies its own timeouts.
func (s *KafkaSink) Emit(_ context.Context, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     s.topic,
		Key:       sarama.StringEncoder(report.ID.String()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: report.GeneratedAt,
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish report %s: %w", report.ID, err)
	}
	return nil
}

// Name returns "kafka".
func (s *KafkaSink) Name() string {
	return "kafka"
}

// Close flushes and closes the producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
