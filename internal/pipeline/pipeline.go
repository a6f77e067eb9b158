// Package pipeline assembles the handler stack served for each connection.
package pipeline

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mcncl/hello-pipeline/internal/config"
	"github.com/mcncl/hello-pipeline/internal/events"
	"github.com/mcncl/hello-pipeline/internal/hello"
	"github.com/mcncl/hello-pipeline/internal/metrics"
	"github.com/mcncl/hello-pipeline/internal/middleware/breaker"
	"github.com/mcncl/hello-pipeline/internal/middleware/logging"
	"github.com/mcncl/hello-pipeline/internal/middleware/request"
	"github.com/mcncl/hello-pipeline/internal/middleware/security"
	"github.com/mcncl/hello-pipeline/internal/service"
	"github.com/mcncl/hello-pipeline/internal/telemetry"
)

// Options selects the layers Build stacks around the terminal handler
type Options struct {
	// Logger receives the request and response lines; nil uses slog.Default
	Logger *slog.Logger

	// Timeout bounds each call; zero leaves the timeout layer out
	Timeout time.Duration

	// Slow serves from a Sleeper instead of Hello
	Slow      bool
	SlowDelay time.Duration

	// Breaker is shared by every stack; nil leaves the circuit breaker out
	Breaker *breaker.Breaker

	// Limiter is shared by every stack; nil disables rate limiting
	Limiter *security.RateLimiter

	SecurityHeaders bool
	Metrics         bool

	// Tracer wraps calls in spans when set
	Tracer trace.Tracer

	// Events receives one record per finished call when set
	Events *events.Recorder
}

// FromConfig maps the pipeline and security sections of cfg onto Options.
// The breaker, limiter, tracer and event recorder are process-wide and left
// for the caller to set.
func FromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Logger:          logger,
		Timeout:         cfg.Pipeline.Timeout,
		Slow:            cfg.Pipeline.Slow,
		SlowDelay:       cfg.Pipeline.SlowDelay,
		SecurityHeaders: cfg.Security.SecurityHeaders,
		Metrics:         true,
	}
}

// Terminal returns the handler at the bottom of the stack
func Terminal(opts Options) service.Handler {
	if opts.Slow {
		return hello.NewSleeper(opts.SlowDelay)
	}
	return hello.Hello{}
}

// Build creates a fresh stack for one connection. From the inside out:
// terminal, timeout, logging, circuit breaker, rate limit, security headers,
// metrics, tracing, events, request ID.
//
// Logging wraps the timeout layer directly, so a timed out call is logged
// as a response carrying the timeout error after roughly opts.Timeout.
func Build(opts Options) service.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := Terminal(opts)

	if opts.Timeout > 0 {
		h = request.WithTimeout(h, opts.Timeout)
	}

	h = logging.New(h, logger)

	if opts.Breaker != nil {
		h = breaker.WithBreaker(h, opts.Breaker)
	}

	if opts.Limiter != nil {
		h = security.WithRateLimit(h, opts.Limiter)
	}
	if opts.SecurityHeaders {
		h = security.WithSecurityHeaders(h)
	}
	if opts.Metrics {
		h = metrics.Instrument(h)
	}
	if opts.Tracer != nil {
		h = telemetry.Tracing(h, opts.Tracer)
	}
	if opts.Events != nil {
		h = events.WithEvents(h, opts.Events)
	}

	return request.WithRequestID(h)
}

// Factory returns a constructor for per-connection stacks
func Factory(opts Options) func() service.Handler {
	return func() service.Handler {
		return Build(opts)
	}
}
