package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes event envelopes to Kafka topics.
type Producer struct {
	writer      writerInterface
	topicPrefix string
	logger      logging.Logger
	closed      atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer builds a producer from configuration.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, apperrors.NewValidation("kafka brokers are required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	acks := kafka.RequireOne
	if cfg.Acks == "all" {
		acks = kafka.RequireAll
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: acks,
		MaxAttempts:  maxRetries,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		Compression:  kafka.Snappy,
	}

	return &Producer{
		writer:      writer,
		topicPrefix: cfg.TopicPrefix,
		logger:      log.Named("kafka-producer"),
	}, nil
}

// newProducerWithWriter injects a writer for tests.
func newProducerWithWriter(w writerInterface, prefix string, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, topicPrefix: prefix, logger: log}
}

func (p *Producer) topicName(topic string) string {
	if p.topicPrefix == "" {
		return topic
	}
	return p.topicPrefix + "." + topic
}

// Publish wraps payload in an EventEnvelope and writes it to topic, keyed for
// per-key ordering.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return apperrors.New(apperrors.ErrCodeInternal, "kafka producer is closed")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding payload for %s", topic)
	}
	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     topic,
		Source:        "grantscope",
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "1.0",
		Payload:       raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding envelope for %s", topic)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topicName(topic),
		Key:   []byte(key),
		Value: data,
		Time:  envelope.Timestamp,
	})
	if err != nil {
		p.failed.Add(1)
		p.logger.Error("publish failed",
			logging.String("topic", topic), logging.String("key", key), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeExternalService, "publishing to %s", topic)
	}
	p.sent.Add(1)
	p.logger.Debug("event published",
		logging.String("topic", topic), logging.String("event_id", envelope.EventID))
	return nil
}

// Stats returns counters for operational checks.
func (p *Producer) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close flushes and shuts the writer down once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "closing kafka writer")
	}
	p.logger.Info("kafka producer closed")
	return nil
}
