package kafka_middleware

import (
	"context"
	"time"

	"lakeside/pkg/kafka"
	"lakeside/pkg/logger"
)

// LoggingProducerMiddleware logs every publish with its outcome and latency.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		log.Debug("Publishing Kafka message",
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
		)

		err := next(ctx, msg)
		duration := time.Since(start)

		if err != nil {
			log.Error("Failed to publish Kafka message",
				"topic", msg.Topic,
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"error_type", kafka.ClassifyError(err).String(),
				"duration", duration,
				"error", err,
			)
			return err
		}

		log.Info("Published Kafka message",
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", duration,
		)
		return nil
	}
}
