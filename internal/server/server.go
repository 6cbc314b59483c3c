package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/config"
	"github.com/jackzampolin/kbase/internal/documents"
	"github.com/jackzampolin/kbase/internal/home"
	"github.com/jackzampolin/kbase/internal/jobs"
	"github.com/jackzampolin/kbase/internal/server/endpoints"
	"github.com/jackzampolin/kbase/internal/storage/badger"
	"github.com/jackzampolin/kbase/internal/svcctx"
)

// Server is the main kbase HTTP server.
// It owns the embedded store and the worker pool, opening them on start
// and closing them on shutdown.
type Server struct {
	httpServer *http.Server
	home       *home.Dir
	configMgr  *config.Manager
	logger     *slog.Logger
	limiter    *rate.Limiter
	handler    http.Handler

	store     *badger.Backend
	pool      *jobs.Pool
	documents *documents.Service
	stopPool  context.CancelFunc
	poolDone  chan struct{}

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Home is the kbase home directory holding the database and uploads.
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support.
	// When nil, DefaultConfig is used.
	ConfigManager *config.Manager
	// Host and Port override the configured listen address when set.
	Host string
	Port string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Home == nil {
		return nil, fmt.Errorf("home directory is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		home:      cfg.Home,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}
	c := s.config()

	s.limiter = rate.NewLimiter(limitFor(c.Server.RateLimit), c.Server.Burst)
	if s.configMgr != nil {
		s.configMgr.OnChange(func(c *config.Config) {
			s.limiter.SetLimit(limitFor(c.Server.RateLimit))
			s.limiter.SetBurst(c.Server.Burst)
			s.logger.Info("rate limit reloaded from config", "rate_limit", c.Server.RateLimit, "burst", c.Server.Burst)
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)
	s.handler = s.withServices(s.rateLimit(mux))

	host, port := c.Server.Host, c.Server.Port
	if cfg.Host != "" {
		host = cfg.Host
	}
	if cfg.Port != "" {
		port = cfg.Port
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(host, port),
		Handler:      s.handler,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) config() *config.Config {
	if s.configMgr != nil {
		return s.configMgr.Get()
	}
	return config.DefaultConfig()
}

// limitFor maps a configured rate to a limiter rate. Zero disables limiting.
func limitFor(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start opens the store and worker pool, then serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.init(ctx); err != nil {
		s.setNotRunning()
		return err
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// init opens the store, builds the worker pool and document service, and
// recovers runs interrupted by a previous shutdown.
func (s *Server) init(ctx context.Context) error {
	c := s.config()

	if err := s.home.EnsureExists(); err != nil {
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	store, err := badger.OpenBackend(badger.Config{
		Path:     c.StoragePath(s.home.DataPath()),
		InMemory: c.Storage.InMemory,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.logger.Info("store opened", "path", c.StoragePath(s.home.DataPath()), "in_memory", c.Storage.InMemory)

	pool, err := jobs.NewPool(jobs.PoolConfig{
		Logger:       s.logger,
		Size:         c.Worker.PoolSize,
		QueueSize:    c.Worker.QueueSize,
		WriteRetries: c.Worker.WriteRetries,
		Chunks:       store,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create worker pool: %w", err)
	}

	svc, err := documents.New(documents.Config{
		Store:      store,
		Dispatcher: pool,
		Paths:      s.home,
		Defaults:   c.Chunking(),
		Logger:     s.logger,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create document service: %w", err)
	}
	pool.SetReporter(svc)

	if _, err := svc.Recover(ctx); err != nil {
		store.Close()
		return fmt.Errorf("failed to recover interrupted runs: %w", err)
	}

	poolCtx, stopPool := context.WithCancel(context.Background())
	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		pool.Start(poolCtx)
	}()

	s.mu.Lock()
	s.store = store
	s.pool = pool
	s.documents = svc
	s.stopPool = stopPool
	s.poolDone = poolDone
	s.services = &svcctx.Services{
		Store:         store,
		Documents:     svc,
		Pool:          pool,
		Home:          s.home,
		ConfigManager: s.configMgr,
		Logger:        s.logger,
	}
	s.mu.Unlock()
	return nil
}

// shutdown stops the HTTP server, then the worker pool, then the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.closeServices(shutdownCtx)

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) closeServices(ctx context.Context) {
	s.mu.Lock()
	stopPool, poolDone, store := s.stopPool, s.poolDone, s.store
	s.services = nil
	s.mu.Unlock()

	if stopPool != nil {
		s.logger.Info("stopping worker pool")
		stopPool()
		select {
		case <-poolDone:
		case <-ctx.Done():
			s.logger.Warn("worker pool did not stop in time")
		}
	}
	if store != nil {
		s.logger.Info("closing store")
		if err := store.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Documents returns the document service.
// Returns nil if the server hasn't started yet.
func (s *Server) Documents() *documents.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()

		ctx := r.Context()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimit rejects requests beyond the configured rate with 429.
// Health checks are never limited.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && r.URL.Path != "/ready" && !s.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the store or worker pool aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcctx.DocumentsFrom(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
