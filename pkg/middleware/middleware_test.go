package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lakeside/pkg/logger"
)

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("request id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("caller supplied", func(t *testing.T) {
		const id = "6f1c1f7e-4a53-4d8e-9d59-2f0c2b1e5c11"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != id {
			t.Errorf("request id = %q, want %q", seen, id)
		}
	})

	t.Run("malformed caller id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen == "<script>" || seen == "" {
			t.Errorf("request id = %q", seen)
		}
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("panic value leaked: %s", rec.Body.String())
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{name: "json body", method: http.MethodPost, body: `{}`, contentType: "application/json; charset=utf-8", want: http.StatusNoContent},
		{name: "form body", method: http.MethodPost, body: `a=b`, contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "missing header", method: http.MethodPatch, body: `{}`, want: http.StatusUnsupportedMediaType},
		{name: "bodyless post", method: http.MethodPost, want: http.StatusNoContent},
		{name: "get", method: http.MethodGet, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too large")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		_, _ = w.Write([]byte("late"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "late") {
		t.Error("write after timeout reached the client")
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewClientRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := range 2 {
		if code := send("alice"); code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, code)
		}
	}
	if code := send("alice"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("bob"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}
}

func TestClientRateLimiter_WindowSlides(t *testing.T) {
	limiter := NewClientRateLimiter(1, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("c") {
		t.Fatal("first request rejected")
	}
	if limiter.Allow("c") {
		t.Fatal("second request inside window allowed")
	}
	now = now.Add(time.Minute)
	if !limiter.Allow("c") {
		t.Error("request after window rejected")
	}
	if !limiter.Allow("") {
		t.Error("anonymous key must not be limited")
	}
}

func TestIdempotency(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"n":` + string('0'+rune(n)) + `}`))
	}))

	send := func(token, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("alice", "k1")
	replay := send("alice", "k1")
	if calls.Load() != 1 {
		t.Fatalf("handler calls = %d, want 1", calls.Load())
	}
	if replay.Code != http.StatusCreated || replay.Body.String() != first.Body.String() {
		t.Errorf("replay = %d %s, want %d %s", replay.Code, replay.Body, first.Code, first.Body)
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replay not marked")
	}

	send("bob", "k1")
	if calls.Load() != 2 {
		t.Errorf("key reused by another caller replayed their response")
	}

	send("alice", "")
	if calls.Load() != 3 {
		t.Errorf("request without key was not executed")
	}
}

func TestIdempotency_FailuresNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(IdempotencyKeyHeader, "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls.Load() != 2 {
		t.Errorf("handler calls = %d, want 2", calls.Load())
	}
}
