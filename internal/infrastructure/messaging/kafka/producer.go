// Package kafka carries domain events between the importer, the extraction
// worker, and anything else listening on the bus.
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "kafka producer closed")

const defaultMaxMessageBytes = 1024 * 1024

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerMetrics counts what the producer has done so far.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// Producer publishes messages to the bus, keyed so that all events for one
// application land on the same partition.
type Producer struct {
	writer          WriterInterface
	maxMessageBytes int
	logger          logging.Logger
	closed          atomic.Bool
	metrics         ProducerMetrics
}

// NewProducer builds a producer from the shared Kafka configuration.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "kafka brokers are required")
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries + 1,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer:          writer,
		maxMessageBytes: defaultMaxMessageBytes,
		logger:          log.Named("kafka_producer"),
	}, nil
}

// newProducerWithWriter is used by tests to swap in a fake writer.
func newProducerWithWriter(w WriterInterface, log logging.Logger) *Producer {
	return &Producer{
		writer:          w,
		maxMessageBytes: defaultMaxMessageBytes,
		logger:          log.Named("kafka_producer"),
	}
}

// Publish sends one message and waits for the broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, msg *common.ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Topic == "" {
		return errors.New(errors.ErrCodeBadRequest, "message topic is required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeBadRequest, "message value is required")
	}
	if len(msg.Value) > p.maxMessageBytes {
		return errors.Newf(errors.ErrCodeBadRequest, "message exceeds %d bytes", p.maxMessageBytes)
	}

	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to publish message")
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))

	p.logger.Debug("Message published",
		logging.String("topic", msg.Topic),
		logging.Int("bytes", len(msg.Value)))
	return nil
}

// PublishEvent wraps a domain event in an envelope and publishes it to the
// topic registered for its event type, keyed by the aggregate ID.
func (p *Producer) PublishEvent(ctx context.Context, event common.Event) error {
	topic, ok := TopicForEventType(event.EventType())
	if !ok {
		return errors.Newf(errors.ErrCodeBadRequest, "no topic registered for event type %q", event.EventType())
	}

	env, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	msg.Key = []byte(event.AggregateID())
	return p.Publish(ctx, msg)
}

// Metrics returns a snapshot of the producer counters.
func (p *Producer) Metrics() (sent, failed, bytes int64) {
	return p.metrics.MessagesSent.Load(),
		p.metrics.MessagesFailed.Load(),
		p.metrics.BytesSent.Load()
}

// Close flushes and closes the underlying writer. Safe to call twice.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed",
		logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

func toKafkaMessage(msg *common.ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}
