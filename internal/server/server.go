// Package server exposes the dashboard views over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// Defaults for Config.
const (
	DefaultPort              = 4000
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
)

// Config holds configuration for the HTTP server.
type Config struct {
	Views Views
	// History and Pinger are optional.
	History AlertHistory
	Pinger  Pinger
	// Auth defaults to AllowAll.
	Auth Authenticator

	Addr              string
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// Server is the dashboard API server.
type Server struct {
	handler         http.Handler
	addr            string
	readTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	metrics         *Metrics
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	auth := cfg.Auth
	if auth == nil {
		auth = AllowAll{}
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	readTimeout := cfg.ReadHeaderTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadHeaderTimeout
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	metrics := NewMetrics()
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	SetupRoutes(r, NewHandlers(cfg.Views, cfg.History, cfg.Pinger, metrics, logger), auth)

	return &Server{
		handler:         r,
		addr:            net.JoinHostPort(cfg.Addr, strconv.Itoa(port)),
		readTimeout:     readTimeout,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		metrics:         metrics,
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Metrics returns the server's view metrics.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting dashboard server", slog.String("addr", ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down dashboard server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
