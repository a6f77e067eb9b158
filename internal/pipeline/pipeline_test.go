package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcncl/hello-pipeline/internal/config"
	apperrors "github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/events"
	"github.com/mcncl/hello-pipeline/internal/hello"
	"github.com/mcncl/hello-pipeline/internal/middleware/breaker"
	"github.com/mcncl/hello-pipeline/internal/middleware/request"
	"github.com/mcncl/hello-pipeline/internal/middleware/security"
	"github.com/mcncl/hello-pipeline/internal/service"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func logMessages(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestHelloOnly(t *testing.T) {
	resp, err := service.Serve(context.Background(), hello.Hello{}, service.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusOK)
	}
	if string(resp.Body) != hello.Greeting {
		t.Errorf("body = %q, want %q", resp.Body, hello.Greeting)
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		method      string
		path        string
		wantErr     error
		wantBody    string
		minDuration time.Duration
		maxDuration time.Duration
		wantLogMsgs []string
	}{
		{
			name:        "logging around hello",
			opts:        Options{},
			method:      http.MethodGet,
			path:        "/",
			wantBody:    hello.Greeting,
			maxDuration: time.Second,
			wantLogMsgs: []string{"request  GET /", "response GET / time="},
		},
		{
			name:        "generous timeout does not fire",
			opts:        Options{Timeout: 5 * time.Second},
			method:      http.MethodPost,
			path:        "/submit",
			wantBody:    hello.Greeting,
			maxDuration: time.Second,
			wantLogMsgs: []string{"request  POST /submit", "response POST /submit time="},
		},
		{
			name: "slow handler times out",
			opts: Options{
				Timeout:   50 * time.Millisecond,
				Slow:      true,
				SlowDelay: 2 * time.Second,
			},
			method:      http.MethodGet,
			path:        "/slow",
			wantErr:     request.ErrElapsed,
			minDuration: 50 * time.Millisecond,
			maxDuration: time.Second,
			wantLogMsgs: []string{"request  GET /slow", "response GET /slow time="},
		},
		{
			name: "slow handler inside its timeout",
			opts: Options{
				Timeout:   time.Second,
				Slow:      true,
				SlowDelay: 20 * time.Millisecond,
			},
			method:      http.MethodGet,
			path:        "/",
			wantBody:    hello.Greeting,
			minDuration: 20 * time.Millisecond,
			maxDuration: time.Second,
			wantLogMsgs: []string{"request  GET /", "response GET / time="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			opts := tt.opts
			opts.Logger = newTestLogger(&buf)

			h := Build(opts)

			start := time.Now()
			resp, err := service.Serve(context.Background(), h, service.NewRequest(tt.method, tt.path, nil))
			elapsed := time.Since(start)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Serve() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Serve() error = %v", err)
				}
				if string(resp.Body) != tt.wantBody {
					t.Errorf("body = %q, want %q", resp.Body, tt.wantBody)
				}
				if resp.Header.Get(request.RequestIDHeader) == "" {
					t.Error("response is missing a request ID")
				}
			}

			if elapsed < tt.minDuration || elapsed > tt.maxDuration {
				t.Errorf("elapsed = %v, want between %v and %v", elapsed, tt.minDuration, tt.maxDuration)
			}

			lines := logMessages(t, &buf)
			if len(lines) != len(tt.wantLogMsgs) {
				t.Fatalf("got %d log lines, want %d: %s", len(lines), len(tt.wantLogMsgs), buf.String())
			}
			for i, prefix := range tt.wantLogMsgs {
				msg, _ := lines[i]["msg"].(string)
				if !strings.HasPrefix(msg, prefix) {
					t.Errorf("log line %d = %q, want prefix %q", i, msg, prefix)
				}
			}
		})
	}
}

func TestBuildLogsTimeoutAsResponse(t *testing.T) {
	var buf bytes.Buffer
	timeout := 50 * time.Millisecond
	h := Build(Options{
		Logger:    newTestLogger(&buf),
		Timeout:   timeout,
		Slow:      true,
		SlowDelay: 2 * time.Second,
	})

	if _, err := service.Serve(context.Background(), h, service.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, request.ErrElapsed) {
		t.Fatalf("Serve() error = %v, want %v", err, request.ErrElapsed)
	}

	lines := logMessages(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}

	response := lines[1]
	if response["error"] != "request timed out" {
		t.Errorf("response error = %v, want %q", response["error"], "request timed out")
	}

	// slog encodes durations as nanoseconds in JSON
	duration, ok := response["duration"].(float64)
	if !ok {
		t.Fatalf("response duration missing: %v", response)
	}
	if logged := time.Duration(duration); logged < timeout || logged > time.Second {
		t.Errorf("logged duration = %v, want about %v", logged, timeout)
	}
}

func TestBuildSecurityHeaders(t *testing.T) {
	h := Build(Options{Logger: newTestLogger(&bytes.Buffer{}), SecurityHeaders: true})

	resp, err := service.Serve(context.Background(), h, service.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
}

func TestBuildRateLimitSharedAcrossStacks(t *testing.T) {
	limiter := security.NewRateLimiter(1)
	opts := Options{Logger: newTestLogger(&bytes.Buffer{}), Limiter: limiter}
	newStack := Factory(opts)

	first := newStack()
	if _, err := service.Serve(context.Background(), first, service.NewRequest(http.MethodGet, "/", nil)); err != nil {
		t.Fatalf("first Serve() error = %v", err)
	}

	// The single token is spent, so a second connection is held back
	second := newStack()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := service.Serve(ctx, second, service.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("second Serve() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestBuildBreakerShedsAfterTimeouts(t *testing.T) {
	b := breaker.New(breaker.Config{FailureThreshold: 2, OpenTimeout: time.Hour})
	h := Build(Options{
		Logger:    newTestLogger(&bytes.Buffer{}),
		Timeout:   20 * time.Millisecond,
		Slow:      true,
		SlowDelay: time.Second,
		Breaker:   b,
	})

	for i := 0; i < 2; i++ {
		if _, err := service.Serve(context.Background(), h, service.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, request.ErrElapsed) {
			t.Fatalf("call %d error = %v, want %v", i, err, request.ErrElapsed)
		}
	}

	// Timeouts seen through the logging layer trip the circuit
	if b.State() != breaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", b.State())
	}

	start := time.Now()
	_, err := service.Serve(context.Background(), h, service.NewRequest(http.MethodGet, "/", nil))
	if !apperrors.IsUnavailableError(err) {
		t.Errorf("Serve() error = %v, want unavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("rejection took %v, want it before the slow handler runs", elapsed)
	}
}

func TestBuildPublishesEvents(t *testing.T) {
	pub := events.NewMockPublisher()
	rec := events.NewRecorder(pub, 4, newTestLogger(&bytes.Buffer{}))
	h := Build(Options{Logger: newTestLogger(&bytes.Buffer{}), Events: rec})

	resp, err := service.Serve(context.Background(), h, service.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	published := pub.Published()
	if len(published) != 1 {
		t.Fatalf("published %d events, want 1", len(published))
	}
	ev := published[0].Data.(events.Event)

	// The event carries the ID the outermost layer assigned
	if ev.RequestID == "" || ev.RequestID != resp.Header.Get(request.RequestIDHeader) {
		t.Errorf("event request ID = %q, response ID = %q", ev.RequestID, resp.Header.Get(request.RequestIDHeader))
	}
	if ev.Status != http.StatusOK {
		t.Errorf("event status = %d, want %d", ev.Status, http.StatusOK)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pipeline.Timeout = 3 * time.Second
	cfg.Pipeline.Slow = true
	cfg.Security.SecurityHeaders = true

	opts := FromConfig(cfg, nil)
	if opts.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want %v", opts.Timeout, 3*time.Second)
	}
	if !opts.Slow || opts.SlowDelay != cfg.Pipeline.SlowDelay {
		t.Errorf("Slow = %v, SlowDelay = %v", opts.Slow, opts.SlowDelay)
	}
	if !opts.SecurityHeaders || !opts.Metrics {
		t.Errorf("SecurityHeaders = %v, Metrics = %v, want both set", opts.SecurityHeaders, opts.Metrics)
	}

	if _, ok := Terminal(opts).(hello.Sleeper); !ok {
		t.Errorf("Terminal() = %T, want hello.Sleeper", Terminal(opts))
	}
	opts.Slow = false
	if _, ok := Terminal(opts).(hello.Hello); !ok {
		t.Errorf("Terminal() = %T, want hello.Hello", Terminal(opts))
	}
}

func TestBuildAcceptsRequestWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	h := Build(Options{Logger: newTestLogger(&buf), Timeout: time.Second, SecurityHeaders: true})

	req := &service.Request{Method: http.MethodGet, Path: "/"}
	resp, err := service.Serve(context.Background(), h, req)
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != hello.Greeting {
		t.Errorf("response = %d %q, want %d %q", resp.Status, resp.Body, http.StatusOK, hello.Greeting)
	}
	if resp.Header.Get(request.RequestIDHeader) == "" {
		t.Error("response is missing a request ID")
	}
	if req.Header != nil {
		t.Errorf("caller's request was modified: Header = %v", req.Header)
	}
}

func TestFromConfigZeroTimeoutLeavesTimeoutOut(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "pipeline:\n  timeout: 50ms\n  slow: true\n  slow_delay: 150ms\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	tests := []struct {
		name        string
		envTimeout  string
		wantTimeout bool
	}{
		{
			name:        "file timeout fires",
			wantTimeout: true,
		},
		{
			name:        "env zero turns it off",
			envTimeout:  "0",
			wantTimeout: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REQUEST_TIMEOUT", tt.envTimeout)
			t.Setenv("SLOW_HANDLER", "")
			t.Setenv("SLOW_DELAY", "")

			cfg, err := config.Load(configPath, nil)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			var buf bytes.Buffer
			opts := FromConfig(cfg, newTestLogger(&buf))
			opts.Metrics = false
			if (opts.Timeout > 0) != tt.wantTimeout {
				t.Errorf("Timeout = %v, want timeout layer %v", opts.Timeout, tt.wantTimeout)
			}

			resp, err := service.Serve(context.Background(), Build(opts), service.NewRequest(http.MethodGet, "/", nil))
			if tt.wantTimeout {
				if !errors.Is(err, request.ErrElapsed) {
					t.Errorf("Serve() error = %v, want %v", err, request.ErrElapsed)
				}
				return
			}
			if err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			if string(resp.Body) != hello.Greeting {
				t.Errorf("body = %q, want %q", resp.Body, hello.Greeting)
			}
		})
	}
}
