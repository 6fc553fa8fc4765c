// Package http serves the reductiond REST API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/fyrsmithlabs/reductiond/internal/config"
	"github.com/fyrsmithlabs/reductiond/internal/events"
	"github.com/fyrsmithlabs/reductiond/internal/reduction"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	corsMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsHeaders = []string{echo.HeaderContentType, echo.HeaderAuthorization, "x-api-key"}
	corsExposed = []string{
		echo.HeaderXRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
	}
)

// Server exposes the reduction engine over HTTP.
type Server struct {
	echo      *echo.Echo
	engine    *reduction.Engine
	publisher events.Publisher
	logger    *zap.Logger
	config    *config.Config
	limiter   *RateLimiter
	version   string
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	version        string
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

// WithVersion sets the version reported by the system health endpoint.
func WithVersion(v string) Option {
	return func(o *serverOptions) { o.version = v }
}

// WithMeterProvider records HTTP instruments on mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *serverOptions) { o.meterProvider = mp }
}

// WithTracerProvider records server spans on tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serverOptions) { o.tracerProvider = tp }
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *serverOptions) { o.metricsHandler = h }
}

// NewServer creates the HTTP server. A nil publisher discards events and a
// nil cfg uses config.Default().
func NewServer(engine *reduction.Engine, publisher events.Publisher, logger *zap.Logger, cfg *config.Config, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if _, err := bytes.Parse(cfg.Server.BodyLimit); err != nil {
		return nil, fmt.Errorf("invalid body limit %q: %w", cfg.Server.BodyLimit, err)
	}

	o := serverOptions{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
		version:   o.version,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: corsExposed,
	}))
	e.Use(TracingMiddleware(o.tracerProvider))
	e.Use(NewHTTPMetrics(o.meterProvider, logger).MetricsMiddleware())
	e.Use(requestLogger(logger))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	e.Use(apiKeyAuth(cfg.Auth.APIKey.Value()))
	if cfg.RateLimit.Enabled {
		s.limiter = NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window.Duration())
		e.Use(rateLimit(s.limiter))
	}

	s.registerRoutes(o.metricsHandler)
	return s, nil
}

func (s *Server) registerRoutes(metricsHandler http.Handler) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/api/system/health", s.handleSystemHealth)
	if metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	api := s.echo.Group("/api/compression")
	api.POST("/compress", s.handleCompress)
	api.POST("/batch", s.handleBatch)
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/stats", s.handleStats)
	api.POST("/reset", s.handleReset)
}

// handleError renders every error as an ErrorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := ErrorResponse{Error: http.StatusText(code)}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch msg := he.Message.(type) {
		case ErrorResponse:
			body = msg
		case string:
			body = ErrorResponse{Error: msg}
		default:
			body = ErrorResponse{Error: http.StatusText(code)}
		}
	} else {
		s.logger.Error("unhandled error", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.logger.Warn("failed to write error response", zap.Error(err))
	}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on the configured address until ctx is cancelled, then shuts
// down gracefully and returns http.ErrServerClosed.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln
	s.logger.Info("starting http server", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout.Duration())
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Shutdown gracefully shuts down the server and closes the publisher.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	err := s.echo.Shutdown(ctx)
	if perr := s.publisher.Close(); perr != nil {
		s.logger.Warn("failed to close event publisher", zap.Error(perr))
	}
	return err
}
