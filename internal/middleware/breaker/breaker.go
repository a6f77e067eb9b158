// Package breaker sheds calls while the handlers below keep failing. A
// Breaker holds the shared circuit state; each stack gets its own
// CircuitBreak layer reading from it.
package breaker

import (
	"net/http"
	"sync"
	"time"

	"github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// State represents the state of the circuit breaker
type State int

const (
	// StateClosed means the circuit breaker is closed and calls pass through
	StateClosed State = iota
	// StateOpen means the circuit breaker is open and calls fail immediately
	StateOpen
	// StateHalfOpen means the circuit breaker is testing if the handler has recovered
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds configuration for the circuit breaker
type Config struct {
	// FailureThreshold is the number of consecutive failures before opening the circuit
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in half-open state to close the circuit
	SuccessThreshold int
	// OpenTimeout is how long the circuit stays open before transitioning to half-open
	OpenTimeout time.Duration
	// MaxHalfOpenCalls is the max number of calls admitted in half-open state
	MaxHalfOpenCalls int
}

// DefaultConfig returns sensible defaults for the circuit breaker
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		MaxHalfOpenCalls: 3,
	}
}

// Breaker is the circuit state shared by every CircuitBreak layer built on it
type Breaker struct {
	config Config

	mu                   sync.RWMutex
	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	halfOpenCalls        int
	lastFailureTime      time.Time
	lastStateChange      time.Time

	// Callbacks for state changes (optional, for metrics/logging)
	onStateChange func(from, to State)
}

// New creates a closed breaker. Non-positive config values fall back to
// DefaultConfig.
func New(config Config) *Breaker {
	defaults := DefaultConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.MaxHalfOpenCalls <= 0 {
		config.MaxHalfOpenCalls = defaults.MaxHalfOpenCalls
	}

	return &Breaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// SetOnStateChange sets a callback for state changes
func (b *Breaker) SetOnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Stats returns current circuit breaker statistics
func (b *Breaker) Stats() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return map[string]interface{}{
		"state":                 b.state.String(),
		"consecutive_failures":  b.consecutiveFailures,
		"consecutive_successes": b.consecutiveSuccesses,
		"last_failure_time":     b.lastFailureTime,
		"last_state_change":     b.lastStateChange,
	}
}

// admit checks whether one more call may go through
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailureTime) < b.config.OpenTimeout {
			return errors.WithDetails(
				errors.NewUnavailableError("circuit breaker is open", nil),
				map[string]interface{}{"consecutive_failures": b.consecutiveFailures},
			)
		}
		b.transitionTo(StateHalfOpen)
		b.halfOpenCalls = 1
		return nil

	case StateHalfOpen:
		// Allow limited calls to test if the handler is healthy
		if b.halfOpenCalls >= b.config.MaxHalfOpenCalls {
			return errors.NewUnavailableError("circuit breaker: too many calls in half-open state", nil)
		}
		b.halfOpenCalls++
		return nil

	default:
		return nil
	}
}

// record feeds the outcome of an admitted call back into the circuit
func (b *Breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if failed {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
}

// release gives back an admission whose call never completed
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen && b.halfOpenCalls > 0 {
		b.halfOpenCalls--
	}
}

func (b *Breaker) recordFailure() {
	b.consecutiveFailures++
	b.consecutiveSuccesses = 0
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		// Any failure in half-open state trips the circuit again
		b.transitionTo(StateOpen)
	}
}

func (b *Breaker) recordSuccess() {
	b.consecutiveSuccesses++
	b.consecutiveFailures = 0

	if b.state == StateHalfOpen && b.consecutiveSuccesses >= b.config.SuccessThreshold {
		b.transitionTo(StateClosed)
	}
}

func (b *Breaker) transitionTo(newState State) {
	oldState := b.state
	if oldState == newState {
		return
	}

	b.state = newState
	b.lastStateChange = time.Now()
	b.halfOpenCalls = 0

	if b.onStateChange != nil {
		// Call in goroutine to avoid blocking
		go b.onStateChange(oldState, newState)
	}
}

// Reset manually resets the circuit breaker to closed state
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transitionTo(StateClosed)
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	b.halfOpenCalls = 0
}

// CircuitBreak rejects calls while its Breaker is open. Rejection happens in
// PollReady, so the caller learns before handing over a request.
//
// A CircuitBreak is stateful and must be used by one caller at a time.
type CircuitBreak struct {
	inner    service.Handler
	breaker  *Breaker
	admitted bool
}

// WithBreaker wraps inner with b
func WithBreaker(inner service.Handler, b *Breaker) *CircuitBreak {
	return &CircuitBreak{inner: inner, breaker: b}
}

// PollReady takes an admission from the breaker, then asks the inner handler
func (c *CircuitBreak) PollReady(w service.Waker) (bool, error) {
	if !c.admitted {
		if err := c.breaker.admit(); err != nil {
			return false, err
		}
		c.admitted = true
	}
	return c.inner.PollReady(w)
}

// Call forwards req and reports its outcome to the breaker
func (c *CircuitBreak) Call(req *service.Request) service.Future {
	if !c.admitted {
		if err := c.breaker.admit(); err != nil {
			return service.ReadyError(err)
		}
	}
	c.admitted = false

	return &future{inner: c.inner.Call(req), breaker: c.breaker}
}

type future struct {
	inner   service.Future
	breaker *Breaker
	result  *service.Result
}

func (f *future) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}

	res, ok := f.inner.Poll(w)
	if !ok {
		return service.Result{}, false
	}

	f.breaker.record(failed(res))
	f.result = &res
	return res, true
}

func (f *future) Cancel() {
	if f.result == nil {
		f.breaker.release()
	}
	f.inner.Cancel()
}

// failed treats errors and server-side statuses as failures
func failed(res service.Result) bool {
	if res.Err != nil {
		return true
	}
	return res.Response != nil && res.Response.Status >= http.StatusInternalServerError
}
