package request

import (
	"time"

	"github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// ElapsedError is returned when a call does not resolve within its timeout
type ElapsedError struct{}

func (ElapsedError) Error() string {
	return "request timed out"
}

// Is classifies the error as a timeout
func (ElapsedError) Is(target error) bool {
	return target == errors.ErrTimeout
}

// ErrElapsed is the error produced by the timeout middleware
var ErrElapsed error = ElapsedError{}

// Timeout races each call against a fixed duration
type Timeout struct {
	inner   service.Handler
	timeout time.Duration
}

// WithTimeout wraps inner so calls fail with ErrElapsed after timeout
func WithTimeout(inner service.Handler, timeout time.Duration) *Timeout {
	return &Timeout{inner: inner, timeout: timeout}
}

// PollReady delegates to the inner handler
func (t *Timeout) PollReady(w service.Waker) (bool, error) {
	return t.inner.PollReady(w)
}

// Call forwards req and starts the timer
func (t *Timeout) Call(req *service.Request) service.Future {
	return &timeoutFuture{
		inner: t.inner.Call(req),
		timer: service.NewTimer(t.timeout),
	}
}

type timeoutFuture struct {
	inner     service.Future
	timer     *service.Timer
	result    *service.Result
	cancelled bool
}

// Poll checks the inner call before the timer, so an inner result that is
// ready at the same time as the deadline wins.
func (f *timeoutFuture) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	if res, ok := f.inner.Poll(w); ok {
		f.timer.Stop()
		return f.resolve(res)
	}

	if !f.timer.Poll(w) {
		return service.Result{}, false
	}

	f.inner.Cancel()
	return f.resolve(service.Result{Err: ErrElapsed})
}

func (f *timeoutFuture) resolve(res service.Result) (service.Result, bool) {
	f.result = &res
	return res, true
}

// Cancel is a no-op once the call resolved or was already cancelled. On
// timeout the inner call has been cancelled by Poll.
func (f *timeoutFuture) Cancel() {
	if f.result != nil || f.cancelled {
		return
	}
	f.cancelled = true
	f.timer.Stop()
	f.inner.Cancel()
}
