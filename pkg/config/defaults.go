package config

import "time"

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	IdempotencyStoreMemory = "memory"
	IdempotencyStoreRedis  = "redis"

	MinJWTSecretLength = 32
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "lakeside"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultTokenTTL   = 1 * time.Hour
	DefaultAuthScheme = "Bearer"

	DefaultStoreDriver              = StoreDriverMongo
	DefaultStoreRetryBackoff        = 50 * time.Millisecond
	DefaultBreakerMaxFailures       = 5
	DefaultBreakerOpenTimeout       = 30 * time.Second
	DefaultConfirmationCodeAttempts = 5

	DefaultKafkaEnabled         = false
	DefaultKafkaBookingTopic    = "booking-events"
	DefaultKafkaBookingDLQTopic = "booking-events-dlq"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout   = 30 * time.Second
	DefaultIdempotencyTTL   = 24 * time.Hour
	DefaultIdempotencyStore = IdempotencyStoreMemory
	DefaultRedisAddr        = "localhost:6379"
	DefaultMaxRequestSize   = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	MinPaginationLimit     = 10
)
