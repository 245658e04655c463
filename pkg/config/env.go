package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret  = "JWT_SECRET"
	EnvTokenTTL   = "TOKEN_TTL"
	EnvAuthScheme = "AUTH_SCHEME"

	EnvStoreDriver              = "STORE_DRIVER"
	EnvStoreRetryBackoff        = "STORE_RETRY_BACKOFF"
	EnvBreakerMaxFailures       = "BREAKER_MAX_FAILURES"
	EnvBreakerOpenTimeout       = "BREAKER_OPEN_TIMEOUT"
	EnvConfirmationCodeAttempts = "CONFIRMATION_CODE_ATTEMPTS"

	EnvKafkaEnabled         = "KAFKA_ENABLED"
	EnvKafkaBookingTopic    = "KAFKA_BOOKING_TOPIC"
	EnvKafkaBookingDLQTopic = "KAFKA_BOOKING_DLQ_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout   = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL   = "IDEMPOTENCY_TTL"
	EnvIdempotencyStore = "IDEMPOTENCY_STORE"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvMaxRequestSize   = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// EnvFile is loaded before the environment is read when present.
	EnvFile = ".env"
)
