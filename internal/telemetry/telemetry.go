// Package telemetry sets up OpenTelemetry tracing and provides the pipeline
// layer that opens a span per call.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcncl/hello-pipeline/internal/errors"
)

// Exporters understood by Start
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// Config holds configuration for telemetry setup
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter is ExporterOTLP (the default) or ExporterStdout
	Exporter     string
	OTLPEndpoint string

	SamplingRatio  float64
	MaxExportBatch int
	MaxQueueSize   int
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		ServiceName:    "hello-pipeline",
		Exporter:       ExporterOTLP,
		SamplingRatio:  0.1,
		MaxExportBatch: 512,
		MaxQueueSize:   2048,
	}
}

// Validate checks the config, returning a validation error for the first
// problem found
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return errors.NewValidationError("service name cannot be empty")
	}

	switch c.Exporter {
	case "", ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return errors.NewValidationError("OTLP endpoint cannot be empty")
		}
	case ExporterStdout:
	default:
		return errors.WithDetails(
			errors.NewValidationError("unknown exporter"),
			map[string]interface{}{"exporter": c.Exporter},
		)
	}

	if c.SamplingRatio < 0 || c.SamplingRatio > 1 {
		return errors.NewValidationError("sampling ratio must be between 0 and 1")
	}
	return nil
}

// Provider owns the SDK tracer provider and its exporter between Start and
// Shutdown
type Provider struct {
	config Config

	mu      sync.RWMutex
	started bool
	tp      *sdktrace.TracerProvider
}

// NewProvider validates cfg and fills in defaults. Nothing is exported
// until Start.
func NewProvider(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if cfg.Exporter == "" {
		cfg.Exporter = defaults.Exporter
	}
	if cfg.MaxExportBatch <= 0 {
		cfg.MaxExportBatch = defaults.MaxExportBatch
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaults.MaxQueueSize
	}

	return &Provider{config: cfg}, nil
}

// Start creates the exporter and installs the provider and a W3C trace
// context propagator as the otel globals
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.NewValidationError("provider already started")
	}

	exporter, err := p.newExporter(ctx)
	if err != nil {
		return err
	}

	res, err := p.newResource(ctx)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return err
	}

	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxExportBatchSize(p.config.MaxExportBatch),
			sdktrace.WithMaxQueueSize(p.config.MaxQueueSize),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.config.SamplingRatio))),
	)

	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	p.started = true

	return nil
}

func (p *Provider) newResource(ctx context.Context) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(p.config.ServiceName),
	}
	if p.config.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(p.config.ServiceVersion))
	}
	if p.config.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(p.config.Environment))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, errors.Wrap(err, "creating trace resource")
	}
	return res, nil
}

func (p *Provider) newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch p.config.Exporter {
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.Wrap(err, "creating stdout trace exporter")
		}
		return exporter, nil

	default:
		exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		))
		if err != nil {
			return nil, errors.NewUnavailableError("creating OTLP trace exporter", err)
		}
		return exporter, nil
	}
}

// Tracer returns the provider's tracer, or the global one before Start
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return otel.Tracer(p.config.ServiceName)
	}
	return p.tp.Tracer(p.config.ServiceName)
}

// Shutdown flushes pending spans and stops the exporter. It is a no-op
// before Start.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return nil
	}
	p.started = false

	// Shutting down the provider also shuts down the batcher's exporter
	if err := p.tp.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutting down tracing")
	}
	return nil
}
