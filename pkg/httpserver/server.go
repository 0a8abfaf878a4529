package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/HyperCogAI/alertkit/pkg/logger"
)

// Server wraps http.Server with graceful shutdown. Run blocks until the
// context ends or a SIGINT/SIGTERM arrives, then drains in-flight
// requests within the configured shutdown deadline.
type Server struct {
	cfg Config
	log *slog.Logger

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a server with the default configuration.
func New(opts ...Option) *Server {
	return NewFromConfig(Config{}, opts...)
}

// NewFromConfig creates a server from cfg; zero fields fall back to the
// package defaults.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg: cfg.withDefaults(),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts listening with the given handler and blocks until ctx is
// cancelled, an interrupt/TERM signal arrives, or the listener fails.
// A nil handler answers 404 to everything. Start failures wrap ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: already running", ErrStart)
	}
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.srv = srv
	s.mu.Unlock()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.InfoContext(ctx, "http server listening",
		logger.Component("httpserver"),
		slog.String("addr", s.cfg.Addr),
	)

	select {
	case <-ctx.Done():
		shutdownErr := s.Shutdown(context.WithoutCancel(ctx))
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("%w: %w", ErrStart, serveErr)
		}
		s.log.InfoContext(ctx, "http server stopped", logger.Component("httpserver"))
		return shutdownErr
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			// Shutdown was called directly.
			s.log.InfoContext(ctx, "http server stopped", logger.Component("httpserver"))
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStart, err)
	}
}

// Shutdown drains the server within the shutdown deadline. Idempotent,
// and a no-op when Run has not started. Failures wrap ErrShutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
	})
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%w: %w", ErrShutdown, err)
	}
	return nil
}
