package hello

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mcncl/hello-pipeline/internal/service"
)

func TestHello(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "root", method: http.MethodGet, path: "/"},
		{name: "other path", method: http.MethodPost, path: "/anything"},
		{name: "head", method: http.MethodHead, path: "/x/y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h service.Handler = Hello{}

			ready, err := h.PollReady(service.WakerFunc(func() {}))
			if !ready || err != nil {
				t.Fatalf("PollReady() = %v, %v; want ready", ready, err)
			}

			res, ok := h.Call(service.NewRequest(tt.method, tt.path, nil)).Poll(service.WakerFunc(func() {}))
			if !ok {
				t.Fatal("expected first poll to resolve")
			}
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			if res.Response.Status != http.StatusOK {
				t.Errorf("Status = %d, want %d", res.Response.Status, http.StatusOK)
			}
			if got := string(res.Response.Body); got != Greeting {
				t.Errorf("Body = %q, want %q", got, Greeting)
			}
		})
	}
}

func TestSleeper(t *testing.T) {
	s := NewSleeper(30 * time.Millisecond)

	f := s.Call(service.NewRequest(http.MethodGet, "/", nil))
	if _, ok := f.Poll(service.WakerFunc(func() {})); ok {
		t.Fatal("sleeper resolved before its delay")
	}

	start := time.Now()
	resp, err := service.Block(context.Background(), f)
	if err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	if got := string(resp.Body); got != Greeting {
		t.Errorf("Body = %q, want %q", got, Greeting)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sleeper took %v, want about 30ms", elapsed)
	}

	// resolved futures keep returning the same result
	again, ok := f.Poll(service.WakerFunc(func() {}))
	if !ok || again.Response != resp {
		t.Error("re-polling a resolved sleeper returned a different result")
	}
}

func TestNewSleeperDefault(t *testing.T) {
	if got := NewSleeper(0).Delay; got != SlowDelay {
		t.Errorf("Delay = %v, want %v", got, SlowDelay)
	}
}
