package security

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/metrics"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// RateLimiter is a token bucket shared by every RateLimit layer built from it
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with specified requests per minute.
// A non-positive rate disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(requestsPerMinute)),
			requestsPerMinute,
		),
	}
}

// RateLimit holds calls back until the shared limiter grants a token. It is
// the layer that makes use of readiness: PollReady reports not-ready and
// arms a timer for the moment the next token becomes available.
//
// A RateLimit is stateful and must be used by one caller at a time.
type RateLimit struct {
	inner   service.Handler
	limiter *RateLimiter

	permit bool
	wait   *service.Timer
}

// WithRateLimit wraps inner with rate limiting against limiter
func WithRateLimit(inner service.Handler, limiter *RateLimiter) *RateLimit {
	return &RateLimit{inner: inner, limiter: limiter}
}

// PollReady acquires a permit, then asks the inner handler
func (r *RateLimit) PollReady(w service.Waker) (bool, error) {
	for !r.permit {
		if r.wait != nil {
			if !r.wait.Poll(w) {
				return false, nil
			}
			r.wait = nil
		}

		now := time.Now()
		res := r.limiter.limiter.ReserveN(now, 1)
		if !res.OK() {
			return false, errors.NewRateLimitError("limiter cannot grant a token")
		}

		if delay := res.DelayFrom(now); delay > 0 {
			// give the token back and try again once it would be ours
			res.CancelAt(now)
			metrics.RecordRateLimited()
			r.wait = service.NewTimer(delay)
			continue
		}

		r.permit = true
	}

	return r.inner.PollReady(w)
}

// Call consumes the permit acquired by PollReady. Callers that skip PollReady
// are admitted only if a token is free right now.
func (r *RateLimit) Call(req *service.Request) service.Future {
	if !r.permit {
		if !r.limiter.limiter.Allow() {
			metrics.RecordRateLimited()
			return service.ReadyError(errors.NewRateLimitError("rate limit exceeded"))
		}
	}
	r.permit = false

	return r.inner.Call(req)
}
