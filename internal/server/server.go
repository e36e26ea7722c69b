// Package server assembles the relay's HTTP surface and runs its listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"

	appconfig "github.com/lewisedginton/tile_relay/internal/config"
	"github.com/lewisedginton/tile_relay/internal/middleware"
	"github.com/lewisedginton/tile_relay/internal/providers"
	"github.com/lewisedginton/tile_relay/internal/relay"
	"github.com/lewisedginton/tile_relay/pkg/health"
	"github.com/lewisedginton/tile_relay/pkg/httpmiddleware"
	"github.com/lewisedginton/tile_relay/pkg/logger"
	"github.com/lewisedginton/tile_relay/pkg/metrics"
	"github.com/lewisedginton/tile_relay/pkg/utils"
)

// Server owns the relay HTTP listener and the optional metrics and gRPC health
// listeners.
type Server struct {
	cfg     *appconfig.AppConfig
	log     logger.Logger
	metrics *metrics.Metrics
	health  *health.GRPCServer
	server  *http.Server
}

// New creates a Server relaying to the given completers. Metrics and gRPC health
// are created only when enabled in cfg.
func New(cfg *appconfig.AppConfig, log logger.Logger, completers []providers.Completer) *Server {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	if cfg.Monitoring.MetricsEnabled {
		s.metrics = metrics.NewMetrics(metricsNamespace, log)
	}
	if cfg.Monitoring.GRPCHealthPort > 0 {
		s.health = health.NewGRPCServer(log)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router(completers),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	log.Info("Relay server initialized",
		logger.IntField("http_port", cfg.Port),
		logger.IntField("providers", len(completers)))

	return s
}

const metricsNamespace = "tile_relay"

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) router(completers []providers.Completer) http.Handler {
	r := chi.NewRouter()

	mw := httpmiddleware.DefaultConfig()
	mw.Logger = s.log
	mw.EnableLogging = true
	mw.MaxRequestSize = s.cfg.Security.MaxRequestSize
	mw.CORS.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	mw.Recoverer = middleware.Recovery(middleware.DefaultRecoveryConfig(s.log))
	if s.metrics != nil {
		mw.Metrics = s.metrics.HTTPMiddleware()
	}
	httpmiddleware.ApplyToRouter(r, mw)

	r.Get("/health", health.Handler(s.log))
	relay.Mount(r, completers, s.log, relay.WithMetrics(s.metrics))

	return r
}

// Listen starts every enabled listener. The returned channel carries the first
// fatal listener error; closer stops everything immediately and gracefulCloser
// drains in-flight requests for up to the configured shutdown timeout.
func (s *Server) Listen() (chan error, func(), func()) {
	httpErrs := make(chan error, 1)
	go func() {
		defer close(httpErrs)
		s.log.Info("Starting HTTP server", logger.StringField("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrs <- err
		}
	}()

	chans := []chan error{httpErrs}
	if s.metrics != nil {
		chans = append(chans, s.metrics.Listen(s.cfg.Monitoring.MetricsPort))
	}
	if s.health != nil {
		chans = append(chans, s.health.Listen(s.cfg.Monitoring.GRPCHealthPort))
	}

	closer := func() {
		s.log.Info("Forcefully closing listeners")
		if err := s.Close(); err != nil {
			s.log.Error("Error during forced shutdown", logger.ErrorField(err))
		}
	}

	gracefulCloser := func() {
		s.log.Info("Gracefully closing listeners")
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.GracefulShutdown(ctx); err != nil {
			s.log.Error("Error during graceful shutdown", logger.ErrorField(err))
		}
	}

	return utils.MergeErrorChans(chans...), closer, gracefulCloser
}

// Run listens until ctx is cancelled, SIGINT/SIGTERM arrives or a listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	errChan, closer, gracefulCloser := s.Listen()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))
		gracefulCloser()
	case <-ctx.Done():
		s.log.Info("Context cancelled, shutting down")
		gracefulCloser()
	case err, ok := <-errChan:
		if ok && err != nil {
			s.log.Error("Fatal server error occurred", logger.ErrorField(err))
			closer()
			return fmt.Errorf("server error: %w", err)
		}
		s.log.Info("Listener stopped, shutting down")
		gracefulCloser()
	}

	s.log.Info("Server exited gracefully")
	return nil
}

// GracefulShutdown marks gRPC health NOT_SERVING first, then drains the HTTP
// listeners.
func (s *Server) GracefulShutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.Shutdown(ctx)
	}

	var result error
	if err := s.server.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("metrics shutdown: %w", err))
	}
	return result
}

// Close forcefully shuts down every listener
func (s *Server) Close() error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if s.health != nil {
		s.health.Shutdown(ctx)
	}
	_ = s.metrics.Shutdown(ctx)
	return s.server.Close()
}
