package service

import (
	"context"
	"net/http"
)

// Request is the input to a Handler. Ownership passes to the handler being
// called; layers do not mutate a request after forwarding it.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	ctx context.Context
}

// NewRequest creates a request with an empty header set
func NewRequest(method, path string, body []byte) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Body:   body,
	}
}

// Context returns the request context, defaulting to context.Background
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r carrying ctx
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("nil context")
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// Response is produced by the terminal handler and passed back up the stack.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with the given status and body
func NewResponse(status int, body []byte) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// Result is the final outcome of a call: exactly one of Response or Err is set.
type Result struct {
	Response *Response
	Err      error
}

// Waker is handed to Poll so a pending future can ask to be polled again.
// Wake may be called from any goroutine, any number of times, and must not
// poll anything itself.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to the Waker interface
type WakerFunc func()

// Wake calls f
func (f WakerFunc) Wake() { f() }

// Future is an in-flight call.
type Future interface {
	// Poll advances the call one step. It reports false while the call is
	// still pending, after arranging for w to be woken when progress is
	// possible.
	Poll(w Waker) (Result, bool)

	// Cancel releases everything the future owns. The future must not be
	// polled afterwards.
	Cancel()
}

// Handler is implemented by the terminal handler and by every middleware.
type Handler interface {
	// PollReady reports whether the handler can accept a call now. When it
	// reports false, w will be woken once it is worth asking again.
	PollReady(w Waker) (bool, error)

	// Call starts handling req and returns without blocking.
	Call(req *Request) Future
}
