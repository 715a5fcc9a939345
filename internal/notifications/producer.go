package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketbooth/internal/shared/config"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// BookingCommitted is the event emitted after a settlement transaction
// commits. Downstream services (email receipts, analytics) consume it.
type BookingCommitted struct {
	CommonOrder string      `json:"common_order"`
	BookingIDs  []uuid.UUID `json:"booking_ids"`
	CustomerID  uuid.UUID   `json:"customer_id"`
	EventID     uuid.UUID   `json:"event_id"`
	AmountPaid  float64     `json:"amount_paid"`
	Currency    string      `json:"currency"`
	CommittedAt time.Time   `json:"committed_at"`
}

// Producer publishes booking lifecycle events.
type Producer interface {
	PublishBookingCommitted(ctx context.Context, event *BookingCommitted) error
	Close() error
}

// kafkaProducer publishes to Kafka with a synchronous producer. Messages
// key on the common order so all events for one checkout land on the same
// partition.
type kafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(cfg config.KafkaConfig) (Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &kafkaProducer{
		producer: producer,
		topic:    cfg.BookingTopic,
	}, nil
}

func (p *kafkaProducer) PublishBookingCommitted(ctx context.Context, event *BookingCommitted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.CommonOrder),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("booking.committed")},
			{Key: []byte("common_order"), Value: []byte(event.CommonOrder)},
			{Key: []byte("committed_at"), Value: []byte(event.CommittedAt.Format(time.RFC3339))},
		},
		Timestamp: event.CommittedAt,
	}

	if _, _, err := p.producer.SendMessage(message); err != nil {
		return fmt.Errorf("failed to send booking event to Kafka: %w", err)
	}
	return nil
}

func (p *kafkaProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// noopProducer stands in when Kafka is disabled.
type noopProducer struct{}

func NewNoopProducer() Producer {
	return noopProducer{}
}

func (noopProducer) PublishBookingCommitted(ctx context.Context, event *BookingCommitted) error {
	return nil
}

func (noopProducer) Close() error {
	return nil
}
