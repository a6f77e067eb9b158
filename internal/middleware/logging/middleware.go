package logging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcncl/hello-pipeline/internal/middleware/request"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// Logging logs every call it forwards: one line when the call starts and one
// when its result is observed.
type Logging struct {
	inner  service.Handler
	logger *slog.Logger
}

// New wraps inner with request/response logging
func New(inner service.Handler, logger *slog.Logger) *Logging {
	return &Logging{inner: inner, logger: logger}
}

// PollReady delegates to the inner handler
func (l *Logging) PollReady(w service.Waker) (bool, error) {
	return l.inner.PollReady(w)
}

// Call logs the request, starts the clock and forwards req
func (l *Logging) Call(req *service.Request) service.Future {
	method := req.Method
	path := req.Path
	requestID := req.Header.Get(request.RequestIDHeader)
	ctx := req.Context()

	l.logger.LogAttrs(ctx, slog.LevelInfo,
		fmt.Sprintf("request  %s %s", method, path),
		requestAttrs(method, path, requestID)...,
	)

	start := time.Now()

	return &future{
		inner:     l.inner.Call(req),
		logger:    l.logger,
		ctx:       ctx,
		start:     start,
		method:    method,
		path:      path,
		requestID: requestID,
	}
}

type future struct {
	inner  service.Future
	logger *slog.Logger
	ctx    context.Context

	start     time.Time
	method    string
	path      string
	requestID string

	result *service.Result
}

func (f *future) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}

	elapsed := time.Since(f.start)

	attrs := append(requestAttrs(f.method, f.path, f.requestID), slog.Duration("duration", elapsed))
	if res.Err != nil {
		attrs = append(attrs, slog.String("error", res.Err.Error()))
	} else if res.Response != nil {
		attrs = append(attrs, slog.Int("status", res.Response.Status))
	}

	f.logger.LogAttrs(f.ctx, slog.LevelInfo,
		fmt.Sprintf("response %s %s time=%v", f.method, f.path, elapsed),
		attrs...,
	)

	f.result = &res
	return res, true
}

// Cancel drops the inner call; nothing is logged for calls that never complete
func (f *future) Cancel() {
	f.inner.Cancel()
}

func requestAttrs(method, path, requestID string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
	}
	if requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	return attrs
}
