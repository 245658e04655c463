package middleware

import (
	"encoding/json"
	"time"

	"lakeside/pkg/logger"

	"github.com/go-redis/redis"
)

const redisIdempotencyPrefix = "idempotency:"

// RedisIdempotencyStore shares cached responses between service replicas.
// Redis failures degrade to a cache miss.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisIdempotencyStore(addr string, ttl time.Duration, log *logger.Logger) *RedisIdempotencyStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisIdempotencyStore{client: client, ttl: ttl, log: log}
}

func (s *RedisIdempotencyStore) Ping() error {
	return s.client.Ping().Err()
}

func (s *RedisIdempotencyStore) Get(key string) (*CachedResponse, bool) {
	data, err := s.client.Get(redisIdempotencyPrefix + key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Warn("Idempotency cache read failed", "error", err)
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		s.log.Warn("Idempotency cache entry is corrupt", "error", err)
		return nil, false
	}
	return &cached, true
}

func (s *RedisIdempotencyStore) Set(key string, response *CachedResponse) {
	response.CreatedAt = time.Now()
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("Failed to encode idempotency cache entry", "error", err)
		return
	}
	if err := s.client.Set(redisIdempotencyPrefix+key, data, s.ttl).Err(); err != nil {
		s.log.Warn("Idempotency cache write failed", "error", err)
	}
}

func (s *RedisIdempotencyStore) Stop() {
	if err := s.client.Close(); err != nil {
		s.log.Warn("Failed to close redis client", "error", err)
	}
}
