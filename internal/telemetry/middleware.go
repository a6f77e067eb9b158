package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcncl/hello-pipeline/internal/service"
)

// Traced wraps every call it forwards in a span
type Traced struct {
	inner  service.Handler
	tracer trace.Tracer
}

// Tracing wraps inner so each call is traced with tracer
func Tracing(inner service.Handler, tracer trace.Tracer) *Traced {
	return &Traced{inner: inner, tracer: tracer}
}

// PollReady delegates to the inner handler
func (t *Traced) PollReady(w service.Waker) (bool, error) {
	return t.inner.PollReady(w)
}

// Call starts a span and forwards req with the span in its context. A trace
// context carried in the request headers becomes the span's parent.
func (t *Traced) Call(req *service.Request) service.Future {
	parent := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
	ctx, span := t.tracer.Start(parent,
		fmt.Sprintf("%s %s", req.Method, req.Path),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLPathKey.String(req.Path),
		),
	)

	return &spanFuture{
		inner: t.inner.Call(req.WithContext(ctx)),
		span:  span,
	}
}

type spanFuture struct {
	inner  service.Future
	span   trace.Span
	result *service.Result
}

func (f *spanFuture) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}

	if res.Err != nil {
		f.span.RecordError(res.Err)
		f.span.SetStatus(codes.Error, res.Err.Error())
	} else if res.Response != nil {
		f.span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(res.Response.Status))
	}
	f.span.End()

	f.result = &res
	return res, true
}

func (f *spanFuture) Cancel() {
	if f.result == nil {
		f.span.SetStatus(codes.Error, "cancelled")
		f.span.End()
	}
	f.inner.Cancel()
}
