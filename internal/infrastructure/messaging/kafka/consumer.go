package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerMetrics counts what the consumer has done so far.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesRetried      atomic.Int64
	MessagesDeadLettered atomic.Int64
}

// Consumer pulls messages from subscribed topics and dispatches them to the
// handler registered per topic. Failed messages are retried with exponential
// backoff and then forwarded to the dead-letter topic so the consumer never
// stalls on a poison message.
type Consumer struct {
	reader     ReaderInterface
	deadLetter *Producer
	logger     logging.Logger

	handlers map[string]common.MessageHandler
	mu       sync.RWMutex

	maxRetries   int
	retryBackoff time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	metrics ConsumerMetrics
}

// NewConsumer builds a consumer for the given topics, with an optional
// dead-letter producer. Pass nil to drop poison messages instead.
func NewConsumer(cfg config.KafkaConfig, topics []string, deadLetter *Producer, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "kafka brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "kafka group id is required")
	}
	if len(topics) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "at least one topic is required")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
	})

	return newConsumerWithReader(reader, deadLetter, log), nil
}

// newConsumerWithReader is used by tests to swap in a fake reader.
func newConsumerWithReader(r ReaderInterface, deadLetter *Producer, log logging.Logger) *Consumer {
	return &Consumer{
		reader:       r,
		deadLetter:   deadLetter,
		logger:       log.Named("kafka_consumer"),
		handlers:     make(map[string]common.MessageHandler),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
}

// Subscribe registers the handler for a topic. The last registration wins.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop. It returns immediately; the loop runs
// until Close or context cancellation.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("Kafka consumer started")
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}

		c.metrics.MessagesConsumed.Add(1)
		msg := toCommonMessage(m)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
			c.commit(ctx, m)
			continue
		}

		if err := c.processMessage(ctx, msg, handler); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.metrics.MessagesFailed.Add(1)
		} else {
			c.metrics.MessagesProcessed.Add(1)
		}
		c.commit(ctx, m)
	}
}

// processMessage runs the handler, retrying with exponential backoff. When
// retries are exhausted the message goes to the dead-letter topic and the
// offset still advances.
func (c *Consumer) processMessage(ctx context.Context, msg *common.Message, handler common.MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		return nil
	}

	backoff := c.retryBackoff
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.metrics.MessagesRetried.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		if err = handler(ctx, msg); err == nil {
			return nil
		}
		backoff *= 2
	}

	c.logger.Error("Message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))

	if c.deadLetter != nil {
		dlMsg := &common.ProducerMessage{
			Topic:   TopicDeadLetterExtraction,
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: map[string]string{},
		}
		for k, v := range msg.Headers {
			dlMsg.Headers[k] = v
		}
		dlMsg.Headers["original_topic"] = msg.Topic
		dlMsg.Headers["error_message"] = err.Error()

		if dlErr := c.deadLetter.Publish(ctx, dlMsg); dlErr != nil {
			c.logger.Error("Failed to publish to dead-letter topic", logging.Err(dlErr))
			return err
		}
		c.metrics.MessagesDeadLettered.Add(1)
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.logger.Error("Failed to commit offset",
			logging.String("topic", m.Topic),
			logging.Err(err))
	}
}

// Metrics returns a snapshot of the consumer counters.
func (c *Consumer) Metrics() (consumed, processed, failed, deadLettered int64) {
	return c.metrics.MessagesConsumed.Load(),
		c.metrics.MessagesProcessed.Load(),
		c.metrics.MessagesFailed.Load(),
		c.metrics.MessagesDeadLettered.Load()
}

// Close stops the consume loop and releases the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed",
		logging.Int64("consumed", c.metrics.MessagesConsumed.Load()))
	return err
}

func toCommonMessage(m kafka.Message) *common.Message {
	msg := &common.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}
