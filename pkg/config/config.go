package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	"lakeside/pkg/client"
	"lakeside/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret  string
	TokenTTL   time.Duration
	AuthScheme string

	StoreDriver              string
	StoreRetryBackoff        time.Duration
	BreakerMaxFailures       int
	BreakerOpenTimeout       time.Duration
	ConfirmationCodeAttempts int

	KafkaEnabled         bool
	KafkaBookingTopic    string
	KafkaBookingDLQTopic string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout   time.Duration
	IdempotencyTTL   time.Duration
	IdempotencyStore string
	RedisAddr        string
	MaxRequestSize   int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment and exits the process
// when it is invalid.
func Load(serviceName string) *Config {
	envFileErr := godotenv.Load(EnvFile)
	cfg := FromEnv(serviceName)
	if envFileErr != nil && !errors.Is(envFileErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read env file", "file", EnvFile, "error", envFileErr)
	}
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads the configuration without validating it.
func FromEnv(serviceName string) *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret:  os.Getenv(EnvJWTSecret),
		TokenTTL:   getEnvDuration(EnvTokenTTL, DefaultTokenTTL),
		AuthScheme: getEnvStr(EnvAuthScheme, DefaultAuthScheme),

		StoreDriver:              getEnvStr(EnvStoreDriver, DefaultStoreDriver),
		StoreRetryBackoff:        getEnvDuration(EnvStoreRetryBackoff, DefaultStoreRetryBackoff),
		BreakerMaxFailures:       getEnvNum(EnvBreakerMaxFailures, DefaultBreakerMaxFailures),
		BreakerOpenTimeout:       getEnvDuration(EnvBreakerOpenTimeout, DefaultBreakerOpenTimeout),
		ConfirmationCodeAttempts: getEnvNum(EnvConfirmationCodeAttempts, DefaultConfirmationCodeAttempts),

		KafkaEnabled:         getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaBookingTopic:    getEnvStr(EnvKafkaBookingTopic, DefaultKafkaBookingTopic),
		KafkaBookingDLQTopic: getEnvStr(EnvKafkaBookingDLQTopic, DefaultKafkaBookingDLQTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:   getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL:   getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		IdempotencyStore: getEnvStr(EnvIdempotencyStore, DefaultIdempotencyStore),
		RedisAddr:        getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		MaxRequestSize:   getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret is required")
	} else if len(cfg.JWTSecret) < MinJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least %d bytes, got: %d", MinJWTSecretLength, len(cfg.JWTSecret)))
	}
	if cfg.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("TokenTTL must be positive, got: %s", cfg.TokenTTL))
	}
	if cfg.AuthScheme == "" {
		errors = append(errors, "AuthScheme cannot be empty")
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreDriverMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [%s, %s], got: %s", StoreDriverMongo, StoreDriverMemory, cfg.StoreDriver))
	}

	if cfg.StoreRetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("StoreRetryBackoff cannot be negative, got: %s", cfg.StoreRetryBackoff))
	}
	if cfg.BreakerMaxFailures <= 0 {
		errors = append(errors, fmt.Sprintf("BreakerMaxFailures must be positive, got: %d", cfg.BreakerMaxFailures))
	}
	if cfg.BreakerOpenTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("BreakerOpenTimeout must be positive, got: %s", cfg.BreakerOpenTimeout))
	}
	if cfg.ConfirmationCodeAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ConfirmationCodeAttempts must be positive, got: %d", cfg.ConfirmationCodeAttempts))
	}

	if cfg.KafkaEnabled && cfg.KafkaBookingTopic == "" {
		errors = append(errors, "KafkaBookingTopic cannot be empty when Kafka is enabled")
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	switch cfg.IdempotencyStore {
	case IdempotencyStoreMemory:
	case IdempotencyStoreRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when the idempotency store is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("IdempotencyStore must be one of [%s, %s], got: %s", IdempotencyStoreMemory, IdempotencyStoreRedis, cfg.IdempotencyStore))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"token_ttl", cfg.TokenTTL,
		"auth_scheme", cfg.AuthScheme,
		"store_driver", cfg.StoreDriver,
		"store_retry_backoff", cfg.StoreRetryBackoff,
		"breaker_max_failures", cfg.BreakerMaxFailures,
		"breaker_open_timeout", cfg.BreakerOpenTimeout,
		"confirmation_code_attempts", cfg.ConfirmationCodeAttempts,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_booking_topic", cfg.KafkaBookingTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"idempotency_store", cfg.IdempotencyStore,
		"redis_addr", cfg.RedisAddr,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func (cfg *Config) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := cfg.Client.Close(ctx); err != nil {
		cfg.Log.Error("Failed to release clients", "error", err)
	}
}

var mongoCredentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)

func redactMongoURI(uri string) string {
	return mongoCredentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		return MinPaginationLimit
	}
	return min(limit, DefaultPaginationLimit)
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
