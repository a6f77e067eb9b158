// Package hello provides the terminal handlers at the bottom of the pipeline.
package hello

import (
	"net/http"
	"time"

	"github.com/mcncl/hello-pipeline/internal/service"
)

// Greeting is the body every terminal handler responds with
const Greeting = "Hello, World!"

// SlowDelay is the default suspension of the Sleeper handler
const SlowDelay = 15 * time.Second

// Hello responds immediately with the greeting. It never fails.
type Hello struct{}

// PollReady always reports ready
func (Hello) PollReady(service.Waker) (bool, error) {
	return true, nil
}

// Call returns an already-resolved future
func (Hello) Call(*service.Request) service.Future {
	return service.ReadyResponse(greeting())
}

// Sleeper suspends for Delay before responding with the greeting. It is used
// to exercise the timeout layer.
type Sleeper struct {
	Delay time.Duration
}

// NewSleeper creates a Sleeper, falling back to SlowDelay for non-positive delays
func NewSleeper(delay time.Duration) Sleeper {
	if delay <= 0 {
		delay = SlowDelay
	}
	return Sleeper{Delay: delay}
}

// PollReady always reports ready
func (Sleeper) PollReady(service.Waker) (bool, error) {
	return true, nil
}

// Call starts the delay; the greeting is produced once it elapses
func (s Sleeper) Call(*service.Request) service.Future {
	return &sleepFuture{timer: service.NewTimer(s.Delay)}
}

type sleepFuture struct {
	timer  *service.Timer
	result *service.Result
}

func (f *sleepFuture) Poll(w service.Waker) (service.Result, bool) {
	if f.result != nil {
		return *f.result, true
	}
	if !f.timer.Poll(w) {
		return service.Result{}, false
	}
	f.result = &service.Result{Response: greeting()}
	return *f.result, true
}

func (f *sleepFuture) Cancel() {
	f.timer.Stop()
}

func greeting() *service.Response {
	resp := service.NewResponse(http.StatusOK, []byte(Greeting))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp
}
