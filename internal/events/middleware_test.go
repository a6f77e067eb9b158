package events

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mcncl/hello-pipeline/internal/hello"
	"github.com/mcncl/hello-pipeline/internal/metrics"
	"github.com/mcncl/hello-pipeline/internal/middleware/request"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// resultHandler resolves every call with the same result
type resultHandler struct {
	result service.Result
}

func (h resultHandler) PollReady(service.Waker) (bool, error) { return true, nil }

func (h resultHandler) Call(*service.Request) service.Future {
	if h.result.Err != nil {
		return service.ReadyError(h.result.Err)
	}
	return service.ReadyResponse(h.result.Response)
}

func recordedEvents(t *testing.T, rec *Recorder, pub *MockPublisher) []Event {
	t.Helper()
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	var events []Event
	for _, msg := range pub.Published() {
		events = append(events, msg.Data.(Event))
	}
	return events
}

func TestEmitter(t *testing.T) {
	tests := []struct {
		name        string
		inner       service.Handler
		wantOutcome string
		wantStatus  int
		wantError   string
	}{
		{
			name:        "successful response",
			inner:       hello.Hello{},
			wantOutcome: metrics.OutcomeSuccess,
			wantStatus:  http.StatusOK,
		},
		{
			name:        "timeout",
			inner:       resultHandler{result: service.Result{Err: request.ErrElapsed}},
			wantOutcome: metrics.OutcomeTimeout,
			wantError:   "request timed out",
		},
		{
			name:        "other error",
			inner:       resultHandler{result: service.Result{Err: errors.New("boom")}},
			wantOutcome: metrics.OutcomeError,
			wantError:   "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := NewMockPublisher()
			rec := newTestRecorder(pub, 4)
			h := WithEvents(tt.inner, rec)

			req := service.NewRequest(http.MethodPost, "/orders", nil)
			req.Header.Set(request.RequestIDHeader, "req-1")
			_, _ = service.Serve(context.Background(), h, req)

			events := recordedEvents(t, rec, pub)
			if len(events) != 1 {
				t.Fatalf("recorded %d events, want 1", len(events))
			}
			ev := events[0]
			if ev.RequestID != "req-1" || ev.Method != http.MethodPost || ev.Path != "/orders" {
				t.Errorf("event = %+v", ev)
			}
			if ev.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %q, want %q", ev.Outcome, tt.wantOutcome)
			}
			if ev.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", ev.Status, tt.wantStatus)
			}
			if ev.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", ev.Error, tt.wantError)
			}
			if ev.Timestamp.IsZero() {
				t.Error("Timestamp not set")
			}
		})
	}
}

func TestEmitterRecordsCancelledCalls(t *testing.T) {
	pub := NewMockPublisher()
	rec := newTestRecorder(pub, 4)
	h := WithEvents(hello.NewSleeper(time.Second), rec)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := service.Serve(ctx, h, service.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() error = %v, want %v", err, context.DeadlineExceeded)
	}

	events := recordedEvents(t, rec, pub)
	if len(events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events))
	}
	if events[0].Outcome != metrics.OutcomeCancelled {
		t.Errorf("Outcome = %q, want %q", events[0].Outcome, metrics.OutcomeCancelled)
	}
}

func TestEmitterRecordsOncePerCall(t *testing.T) {
	pub := NewMockPublisher()
	rec := newTestRecorder(pub, 4)
	h := WithEvents(hello.Hello{}, rec)

	fut := h.Call(service.NewRequest(http.MethodGet, "/", nil))
	w := service.WakerFunc(func() {})
	for i := 0; i < 3; i++ {
		if _, ok := fut.Poll(w); !ok {
			t.Fatalf("poll %d pending", i)
		}
	}
	fut.Cancel()

	if got := len(recordedEvents(t, rec, pub)); got != 1 {
		t.Errorf("recorded %d events, want 1", got)
	}
}
