package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lakeside/pkg/config"
	"lakeside/pkg/contracts"
	"lakeside/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	healthHandler    http.Handler
	appHandler       http.Handler
	onShutdown       []func(context.Context) error
}

type Option func(*Application)

// WithIdempotencyStore replaces the default in-process idempotency store.
func WithIdempotencyStore(store middleware.IdempotencyStore) Option {
	return func(a *Application) {
		if store != nil {
			a.idempotencyStore = store
		}
	}
}

// OnShutdown registers fn to run after the server has drained.
func OnShutdown(fn func(context.Context) error) Option {
	return func(a *Application) {
		a.onShutdown = append(a.onShutdown, fn)
	}
}

func NewApplication(cfg *config.Config, opts ...Option) *Application {
	a := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.idempotencyStore == nil {
		a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	}
	return a
}

func (a *Application) SetApp(health contracts.Handler, handlers ...contracts.Handler) {
	a.setHealthHandler(health)
	a.setAppHandler(handlers)
	a.setAppServer()
}

// Handler returns the fully wrapped HTTP handler, for serving in tests.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(health contracts.Handler) {
	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.healthHandler = h
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, handler := range handlers {
		handler.RegisterRoutes(appRouter)
	}

	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.DefaultClientKey,
		a.cfg.Log,
	)

	var h http.Handler = appRouter
	h = middleware.Idempotency(a.idempotencyStore, middleware.IdempotencyKeyHeader)(h)
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.RateLimit(a.rateLimiter)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.appHandler = h
	a.cfg.Log.Info("Application endpoints configured with full middleware stack", "handlers", len(handlers))
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.Stop(ctx)
	a.cfg.Log.Info("Server stopped gracefully")
}

// Stop releases background workers and runs the shutdown hooks.
func (a *Application) Stop(ctx context.Context) {
	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	for _, fn := range a.onShutdown {
		if err := fn(ctx); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "error", err)
		}
	}
	a.cfg.Log.Info("Background workers stopped")
}
