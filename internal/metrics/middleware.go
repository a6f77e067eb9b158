package metrics

import (
	"time"

	"github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// Instrumented records request metrics for every call it forwards
type Instrumented struct {
	inner service.Handler
}

// Instrument wraps inner with request metrics
func Instrument(inner service.Handler) *Instrumented {
	return &Instrumented{inner: inner}
}

// PollReady delegates to the inner handler
func (m *Instrumented) PollReady(w service.Waker) (bool, error) {
	return m.inner.PollReady(w)
}

// Call forwards req and tracks it as in flight until it resolves
func (m *Instrumented) Call(req *service.Request) service.Future {
	incInFlight()
	return &future{
		inner:  m.inner.Call(req),
		method: req.Method,
		start:  time.Now(),
	}
}

type future struct {
	inner  service.Future
	method string
	start  time.Time
	result *service.Result
	done   bool
}

func (f *future) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}

	if !f.done {
		f.finish(Outcome(res.Err))
	}
	f.result = &res
	return res, true
}

func (f *future) Cancel() {
	if f.done {
		return
	}
	f.finish(OutcomeCancelled)
	f.inner.Cancel()
}

// finish runs once per call, whether it resolved or was cancelled
func (f *future) finish(outcome string) {
	f.done = true
	decInFlight()
	RecordRequest(f.method, outcome, time.Since(f.start).Seconds())
}

// Outcome classifies a call result for the outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.IsTimeoutError(err):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
