package request

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mcncl/hello-pipeline/internal/service"
)

const (
	// RequestIDHeader is the header used for request ID propagation
	RequestIDHeader = "X-Request-ID"
)

// RequestID stamps each request with an ID and echoes it on the response
type RequestID struct {
	inner service.Handler
}

// WithRequestID wraps inner with request ID propagation
func WithRequestID(inner service.Handler) *RequestID {
	return &RequestID{inner: inner}
}

// PollReady delegates to the inner handler
func (r *RequestID) PollReady(w service.Waker) (bool, error) {
	return r.inner.PollReady(w)
}

// Call assigns a new ID when the request carries none, then forwards a copy
// of the request with the ID set. The caller's request is left untouched.
func (r *RequestID) Call(req *service.Request) service.Future {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	forwarded := *req
	forwarded.Header = req.Header.Clone()
	if forwarded.Header == nil {
		forwarded.Header = make(http.Header)
	}
	forwarded.Header.Set(RequestIDHeader, requestID)

	return &idFuture{
		inner:     r.inner.Call(&forwarded),
		requestID: requestID,
	}
}

type idFuture struct {
	inner     service.Future
	requestID string
	result    *service.Result
}

func (f *idFuture) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}

	if res.Response != nil {
		if res.Response.Header == nil {
			res.Response.Header = make(http.Header)
		}
		res.Response.Header.Set(RequestIDHeader, f.requestID)
	}

	f.result = &res
	return res, true
}

func (f *idFuture) Cancel() {
	f.inner.Cancel()
}
