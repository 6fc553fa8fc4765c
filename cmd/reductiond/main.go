// Reductiond is the text reduction daemon.
//
// This binary starts the reductiond HTTP server with telemetry, structured
// logging, Prometheus metrics and optional NATS event publishing.
//
// Configuration is loaded from ~/.config/reductiond/config.yaml (or the file
// given with -config) and REDUCTIOND_* environment variables. See
// internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	reductiond
//
//	# Configure via environment
//	REDUCTIOND_SERVER_PORT=9090 REDUCTIOND_AUTH_API_KEY=secret reductiond
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reductiond/internal/config"
	"github.com/fyrsmithlabs/reductiond/internal/events"
	reductionhttp "github.com/fyrsmithlabs/reductiond/internal/http"
	"github.com/fyrsmithlabs/reductiond/internal/logging"
	"github.com/fyrsmithlabs/reductiond/internal/reduction"
	"github.com/fyrsmithlabs/reductiond/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/reductiond/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  reductiond [-config path]   Start the reductiond daemon\n")
			fmt.Fprintf(os.Stderr, "  reductiond version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("reductiond by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the reductiond server and blocks until ctx is cancelled.
//
// Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info(ctx, "starting reductiond",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("version", version),
		zap.Bool("auth_enabled", cfg.Auth.APIKey.IsSet()),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Bool("events_enabled", cfg.Events.NATSURL != ""),
		zap.Bool("telemetry_enabled", cfg.Observability.EnableTelemetry))

	return a.server.Start(ctx)
}

// app holds the wired service and everything that must be released on exit.
type app struct {
	telemetry *telemetry.Telemetry
	logger    *logging.Logger
	engine    *reduction.Engine
	registry  *prometheus.Registry
	server    *reductionhttp.Server
}

// newApp wires the service:
//  1. Telemetry providers (no-op when disabled)
//  2. Logger, bridged to OTEL when telemetry is enabled
//  3. Reduction engine instrumented with the providers
//  4. Event publisher (NATS or no-op)
//  5. Prometheus registry with engine statistics and runtime collectors
//  6. HTTP server
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := logging.NewLogger(logging.FromObservability(cfg.Observability), tel.LoggerProvider())
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if h := tel.Health(); !h.Healthy {
		logger.Warn(ctx, "telemetry degraded", zap.Errors("errors", h.Errors))
	}

	engine, err := reduction.NewEngine(
		reduction.WithMeterProvider(tel.MeterProvider()),
		reduction.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to create reduction engine: %w", err)
	}

	publisher, err := events.New(cfg.Events,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	if cfg.Events.NATSURL != "" {
		logger.Info(ctx, "publishing reduction events",
			zap.String("url", cfg.Events.NATSURL),
			zap.String("subject_prefix", cfg.Events.SubjectPrefix))
	}

	registry := newRegistry(engine)

	server, err := reductionhttp.NewServer(engine, publisher, logger.Underlying(), cfg,
		reductionhttp.WithVersion(version),
		reductionhttp.WithMeterProvider(tel.MeterProvider()),
		reductionhttp.WithTracerProvider(tel.TracerProvider()),
		reductionhttp.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)
	if err != nil {
		_ = publisher.Close()
		shutdownTelemetry(tel)
		return nil, fmt.Errorf("failed to create http server: %w", err)
	}

	return &app{
		telemetry: tel,
		logger:    logger,
		engine:    engine,
		registry:  registry,
		server:    server,
	}, nil
}

// Close flushes telemetry and logs.
func (a *app) Close() {
	shutdownTelemetry(a.telemetry)
	_ = a.logger.Sync()
}

// newRegistry builds the registry served on /metrics.
func newRegistry(engine *reduction.Engine) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		reduction.NewCollector(engine),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}
