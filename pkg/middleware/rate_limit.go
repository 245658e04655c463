package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "lakeside/pkg/errors"
	"lakeside/pkg/logger"
)

// ClientKeyFunc identifies the caller a request is counted against.
type ClientKeyFunc func(r *http.Request) string

// ClientRateLimiter is a sliding window limiter keyed by caller.
type ClientRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	key      ClientKeyFunc
	now      func() time.Time
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClientRateLimiter(limit int, window time.Duration, key ClientKeyFunc, log *logger.Logger) *ClientRateLimiter {
	if key == nil {
		key = DefaultClientKey
	}
	limiter := &ClientRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		key:      key,
		now:      time.Now,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for client, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) >= rl.window {
					delete(rl.requests, client)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a request for client and reports whether it is within the
// limit. The check and the record happen under one lock.
func (rl *ClientRateLimiter) Allow(client string) bool {
	if client == "" {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[client]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[client] = valid
		return false
	}

	rl.requests[client] = append(valid, now)
	return true
}

func RateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := limiter.key(r)

			if !limiter.Allow(client) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"client", client,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				writeError(w, apperrors.TooManyRequests("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultClientKey counts authenticated callers by a digest of their
// credential and anonymous callers by remote address.
func DefaultClientKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return "cred:" + credentialDigest(auth)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func credentialDigest(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:16])
}
