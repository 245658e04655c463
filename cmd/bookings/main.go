package main

import (
	"context"

	"lakeside/internal/bookings/events"
	"lakeside/internal/health"
	"lakeside/internal/inventory"
	"lakeside/internal/inventory/memory"
	"lakeside/internal/inventory/repository"
	"lakeside/pkg/app"
	"lakeside/pkg/config"
	"lakeside/pkg/kafka"
	kafka_config "lakeside/pkg/kafka/config"
	kafkamiddleware "lakeside/pkg/kafka/middleware"
	"lakeside/pkg/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Bookings service")

	store := initStore(cfg)
	stack, err := app.NewStack(cfg, store, initPublisher(cfg))
	if err != nil {
		cfg.Log.Fatal("Failed to initialize booking core", "error", err)
	}

	checks := []health.Check{{Name: "inventory", Ping: store.Ping}}
	opts := []app.Option{app.OnShutdown(func(ctx context.Context) error { return cfg.Client.Close(ctx) })}
	if cfg.IdempotencyStore == config.IdempotencyStoreRedis {
		idem := middleware.NewRedisIdempotencyStore(cfg.RedisAddr, cfg.IdempotencyTTL, cfg.Log)
		checks = append(checks, health.Check{
			Name: "idempotency_cache",
			Ping: func(context.Context) error { return idem.Ping() },
		})
		opts = append(opts, app.WithIdempotencyStore(idem))
	}

	serverApp := app.NewApplication(cfg, opts...)
	serverApp.SetApp(health.NewHandler(cfg.Log, checks...), stack.Handlers()...)
	serverApp.Run()
}

func initStore(cfg *config.Config) inventory.Store {
	if cfg.StoreDriver == config.StoreDriverMemory {
		cfg.Log.Warn("Using in-memory inventory store; bookings are lost on restart")
		return memory.NewStore(memory.WithCodeAttempts(cfg.ConfirmationCodeAttempts))
	}

	cfg.SetMongo()
	store := repository.NewMongoStore(cfg)
	cfg.Log.Info("Mongo inventory store initialized", "database", cfg.MongoDatabaseName)
	return store
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled; booking events are not published")
		return events.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.KafkaBookingTopic, cfg.KafkaBookingDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	}
	cfg.Client.SetKafka(producer)

	return events.NewKafkaPublisher(producer, cfg.Log)
}
