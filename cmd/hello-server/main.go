package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcncl/hello-pipeline/internal/config"
	"github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/events"
	"github.com/mcncl/hello-pipeline/internal/logging"
	"github.com/mcncl/hello-pipeline/internal/metrics"
	"github.com/mcncl/hello-pipeline/internal/middleware/breaker"
	"github.com/mcncl/hello-pipeline/internal/middleware/security"
	"github.com/mcncl/hello-pipeline/internal/pipeline"
	"github.com/mcncl/hello-pipeline/internal/server"
	"github.com/mcncl/hello-pipeline/internal/telemetry"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	// Parse command line flags
	configFile := flag.String("config", "", "Path to configuration file (JSON or YAML)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (json, text, dev)")
	slow := flag.Bool("slow", false, "Serve from the slow handler")
	timeout := flag.Duration("timeout", 0, "Per-call timeout, e.g. 5s; 0 turns the timeout off")
	flag.Parse()

	timeoutSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			timeoutSet = true
		}
	})

	cfg, err := config.Load(*configFile, flagOverrides(*logLevel, *logFormat, *slow, *timeout, timeoutSet))
	if err != nil {
		logging.NewLogger("error", "json").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	logger.Info("Configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", "error", err, "details", errors.GetDetails(err))
		os.Exit(1)
	}

	logger.Info("Server shutdown complete")
}

// flagOverrides turns the flags that were given into a config override.
// timeoutSet reports whether -timeout was on the command line.
func flagOverrides(logLevel, logFormat string, slow bool, timeout time.Duration, timeoutSet bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			LogLevel:  logLevel,
			LogFormat: logFormat,
		},
		Pipeline: config.PipelineConfig{
			Slow:       slow,
			Timeout:    timeout,
			TimeoutSet: timeoutSet,
		},
	}
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Addr:           cfg.Addr(),
		MaxRequestSize: int64(cfg.Server.MaxRequestSize),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		ReadyTimeout:   cfg.Server.ReadyTimeout,
	}
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	return telemetry.Config{
		ServiceName:   cfg.Telemetry.ServiceName,
		Exporter:      cfg.Telemetry.Exporter,
		OTLPEndpoint:  cfg.Telemetry.OTLPEndpoint,
		SamplingRatio: cfg.Telemetry.TraceSamplingRatio,
		Environment:   os.Getenv("ENVIRONMENT"),
	}
}

// run serves until ctx ends, then drains the server
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	if err := metrics.InitMetrics(reg); err != nil {
		return errors.Wrap(err, "failed to initialize metrics")
	}

	opts := pipeline.FromConfig(cfg, logger)

	if cfg.Pipeline.BreakerThreshold > 0 {
		opts.Breaker = breaker.New(breaker.Config{
			FailureThreshold: cfg.Pipeline.BreakerThreshold,
			OpenTimeout:      cfg.Pipeline.BreakerOpenTimeout,
		})
		opts.Breaker.SetOnStateChange(func(from, to breaker.State) {
			metrics.RecordBreakerTransition(from.String(), to.String())
			logger.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
		})
	}

	// One limiter for all connections
	if cfg.Security.RateLimit > 0 {
		opts.Limiter = security.NewRateLimiter(cfg.Security.RateLimit)
	}

	if cfg.Telemetry.EnableTracing {
		provider, err := telemetry.NewProvider(telemetryConfig(cfg))
		if err != nil {
			return errors.Wrap(err, "failed to configure tracing")
		}
		if err := provider.Start(ctx); err != nil {
			return errors.NewUnavailableError("failed to start tracing", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("Tracing shutdown error", "error", err)
			}
		}()
		opts.Tracer = provider.Tracer()
	}

	if cfg.Events.Enabled() {
		pub, err := events.NewPubSubPublisher(ctx, cfg.Events.ProjectID, cfg.Events.TopicID)
		if err != nil {
			return errors.NewUnavailableError("failed to connect to Pub/Sub", err)
		}
		opts.Events = events.NewRecorder(pub, cfg.Events.QueueSize, logger)
		defer func() {
			// Flush queued events after the server has drained
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := opts.Events.Close(shutdownCtx); err != nil {
				logger.Error("Event publisher shutdown error", "error", err)
			}
		}()
		logger.Info("Publishing request events", "project", cfg.Events.ProjectID, "topic", pub.TopicID())
	}

	srv := server.New(serverConfig(cfg), pipeline.Factory(opts), reg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}
	return <-errCh
}
