package events

import (
	"time"

	"github.com/mcncl/hello-pipeline/internal/metrics"
	"github.com/mcncl/hello-pipeline/internal/middleware/request"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// Emitter records an Event for every call it forwards
type Emitter struct {
	inner    service.Handler
	recorder *Recorder
}

// WithEvents wraps inner so each finished call is handed to rec
func WithEvents(inner service.Handler, rec *Recorder) *Emitter {
	return &Emitter{inner: inner, recorder: rec}
}

// PollReady delegates to the inner handler
func (e *Emitter) PollReady(w service.Waker) (bool, error) {
	return e.inner.PollReady(w)
}

// Call forwards req and records it once it resolves or is cancelled
func (e *Emitter) Call(req *service.Request) service.Future {
	return &future{
		inner:    e.inner.Call(req),
		recorder: e.recorder,
		event: Event{
			RequestID: req.Header.Get(request.RequestIDHeader),
			Method:    req.Method,
			Path:      req.Path,
		},
		start: time.Now(),
	}
}

type future struct {
	inner    service.Future
	recorder *Recorder
	event    Event
	start    time.Time
	result   *service.Result
}

func (f *future) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}

	f.event.Outcome = metrics.Outcome(res.Err)
	if res.Err != nil {
		f.event.Error = res.Err.Error()
	} else if res.Response != nil {
		f.event.Status = res.Response.Status
	}
	f.emit()

	f.result = &res
	return res, true
}

func (f *future) Cancel() {
	if f.result == nil {
		f.event.Outcome = metrics.OutcomeCancelled
		f.emit()
	}
	f.inner.Cancel()
}

func (f *future) emit() {
	f.event.DurationMS = float64(time.Since(f.start).Microseconds()) / 1000
	f.event.Timestamp = f.start.UTC()
	f.recorder.Record(f.event)
}
