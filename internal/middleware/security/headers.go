package security

import (
	"net/http"
	"strings"

	"github.com/mcncl/hello-pipeline/internal/service"
)

// Headers adds the standard security headers to every response
type Headers struct {
	inner service.Handler
}

// WithSecurityHeaders wraps inner so its responses carry security headers
func WithSecurityHeaders(inner service.Handler) *Headers {
	return &Headers{inner: inner}
}

// PollReady delegates to the inner handler
func (h *Headers) PollReady(w service.Waker) (bool, error) {
	return h.inner.PollReady(w)
}

// Call forwards req unchanged
func (h *Headers) Call(req *service.Request) service.Future {
	return &headersFuture{inner: h.inner.Call(req)}
}

type headersFuture struct {
	inner  service.Future
	result *service.Result
}

func (f *headersFuture) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}
	if res.Response != nil {
		setSecurityHeaders(res.Response)
	}

	f.result = &res
	return res, true
}

func (f *headersFuture) Cancel() {
	f.inner.Cancel()
}

func setSecurityHeaders(resp *service.Response) {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	// Basic security headers
	resp.Header.Set("X-Content-Type-Options", "nosniff")
	resp.Header.Set("X-Frame-Options", "DENY")
	resp.Header.Set("Referrer-Policy", "strict-origin-when-cross-origin")

	// Content Security Policy
	resp.Header.Set("Content-Security-Policy", strings.Join([]string{
		"default-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'none'",
		"form-action 'none'",
	}, "; "))
}
