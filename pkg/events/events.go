// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/conformeahq/conformea/pkg/config"
)

// Event types emitted by the platform.
const (
	TypeAssessmentCreated   = "assessment.created"
	TypeAssessmentCompleted = "assessment.completed"
	TypeEvidenceSubmitted   = "evidence.submitted"
	TypeEvidenceValidated   = "evidence.validated"
	TypePlansGenerated      = "plans.generated"
	TypePlanStatusChanged   = "plan.status_changed"
)

// Event is the envelope for all published events.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	OrgID     string    `json:"orgId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent builds an event envelope with a fresh ID and timestamp.
func NewEvent(eventType, orgID string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "conformea-api",
		OrgID:     orgID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	brokers  []string
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates a publisher backed by a sarama sync producer.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer: producer,
		brokers:  cfg.Brokers,
		topic:    cfg.Topic,
		logger:   slog.Default().With("component", "event-publisher"),
	}, nil
}

// Publish sends the event to the configured topic, keyed by event ID.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.ID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	p.logger.Debug("event published",
		"type", event.Type,
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
	)

	return nil
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// Health checks broker connectivity.
func (p *KafkaPublisher) Health(ctx context.Context) error {
	cfg := sarama.NewConfig()
	cfg.Net.DialTimeout = 5 * time.Second

	client, err := sarama.NewClient(p.brokers, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer client.Close()

	return nil
}

// NoopPublisher discards events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }
