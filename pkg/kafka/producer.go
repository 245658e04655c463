package kafka

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	kafka_config "lakeside/pkg/kafka/config"
	"lakeside/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a kafka-go writer with a middleware chain and an optional
// dead letter topic.
type Producer struct {
	writer     messageWriter
	dlqWriter  messageWriter
	topic      string
	dlqTopic   string
	log        *logger.Logger
	middleware []ProducerMiddleware
	closed     bool
	mu         sync.RWMutex
}

// ProducerMiddleware intercepts publish operations.
type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

func NewProducer(cfg *kafka_config.Config, log *logger.Logger, topic string, dlqTopic string) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if log == nil {
		log = logger.Discard()
	}

	var compression compress.Compression
	switch cfg.ProducerCompression {
	case "none":
		compression = compress.None
	case "gzip":
		compression = compress.Gzip
	case "lz4":
		compression = compress.Lz4
	case "zstd":
		compression = compress.Zstd
	default:
		compression = compress.Snappy
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.ProducerRequireAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case 1:
		requiredAcks = kafka.RequireOne
	default:
		requiredAcks = kafka.RequireAll
	}

	errorLogger := kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error("Kafka writer error", "detail", fmt.Sprintf(msg, args...))
	})
	silent := kafka.LoggerFunc(func(string, ...any) {})

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same key, same partition
		RequiredAcks: requiredAcks,
		Compression:  compression,
		MaxAttempts:  cfg.ProducerMaxAttempts,
		BatchTimeout: cfg.ProducerBatchTimeout,
		WriteTimeout: cfg.ProducerWriteTimeout,
		Async:        cfg.ProducerAsync,
		Logger:       silent,
		ErrorLogger:  errorLogger,
	}

	producer := newProducer(writer, nil, topic, dlqTopic, log)

	if dlqTopic != "" {
		producer.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compression,
			MaxAttempts:  3,
			WriteTimeout: cfg.ProducerWriteTimeout,
			Logger:       silent,
			ErrorLogger:  errorLogger,
		}
	}

	return producer, nil
}

func newProducer(writer, dlqWriter messageWriter, topic, dlqTopic string, log *logger.Logger) *Producer {
	return &Producer{
		writer:     writer,
		dlqWriter:  dlqWriter,
		topic:      topic,
		dlqTopic:   dlqTopic,
		log:        log,
		middleware: make([]ProducerMiddleware, 0),
	}
}

func (p *Producer) Topic() string {
	return p.topic
}

// Use appends a middleware. Middleware run in registration order.
func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProducerClosed
	}
	chain := make([]ProducerMiddleware, len(p.middleware))
	copy(chain, p.middleware)
	p.mu.RUnlock()

	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}
	if msg.Topic == "" {
		msg.Topic = p.topic
	}

	handler := p.publishInternal
	for i := len(chain) - 1; i >= 0; i-- {
		middleware := chain[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}

	return handler(ctx, msg)
}

func (p *Producer) publishInternal(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg, msg.Timestamp))
	if err == nil {
		return nil
	}

	if p.dlqWriter != nil {
		if dlqErr := p.sendToDLQ(ctx, msg, err); dlqErr != nil {
			return NewTransientError("failed to send to DLQ", fmt.Errorf("%w (original error: %v)", dlqErr, err))
		}
		p.log.Warn("Message routed to dead letter topic",
			"topic", p.topic,
			"dlq_topic", p.dlqTopic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"error", err,
		)
	}
	return err
}

// sendToDLQ writes a copy of msg with failure metadata to the dead letter topic.
func (p *Producer) sendToDLQ(ctx context.Context, msg Message, originalErr error) error {
	now := time.Now()
	headers := maps.Clone(msg.Headers)
	if headers == nil {
		headers = make(map[string]string)
	}
	headers[HeaderOriginalTopic] = p.topic
	headers[HeaderDLQError] = originalErr.Error()
	headers[HeaderDLQTimestamp] = now.Format(time.RFC3339)
	msg.Headers = headers

	return p.dlqWriter.WriteMessages(ctx, toKafkaMessage(msg, now))
}

func toKafkaMessage(msg Message, ts time.Time) kafka.Message {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  ts,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.writer != nil {
		err = p.writer.Close()
	}
	if p.dlqWriter != nil {
		if dlqErr := p.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}
