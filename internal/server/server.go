// Package server carries HTTP traffic into handler stacks. Each accepted
// connection gets its own stack; the probes and metrics endpoints sit beside
// it on the same router.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcncl/hello-pipeline/internal/errors"
	"github.com/mcncl/hello-pipeline/internal/service"
)

// Config holds the listener settings
type Config struct {
	Addr           string
	MaxRequestSize int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	// ReadyTimeout bounds how long a request waits for its stack to accept
	// a call; zero waits as long as the client does
	ReadyTimeout time.Duration
}

// Server routes pipeline traffic, probes and metrics
type Server struct {
	srv      *http.Server
	router   chi.Router
	health   *HealthCheck
	newStack func() service.Handler
	maxBody  int64
	ready    time.Duration
	logger   *slog.Logger
}

type connKey struct{}

// conn owns the stack built for one connection. PollReady and Call on a
// stack must not interleave, so both happen under mu; driving the returned
// future does not.
type conn struct {
	mu      sync.Mutex
	handler service.Handler
}

// New creates a server whose connections are served by stacks from newStack.
// gatherer backs /metrics; nil leaves the endpoint out.
func New(cfg Config, newStack func() service.Handler, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		health:   NewHealthCheck(),
		newStack: newStack,
		maxBody:  cfg.MaxRequestSize,
		ready:    cfg.ReadyTimeout,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/health", s.health.HealthHandler)
	r.Get("/ready", s.health.ReadyHandler)
	r.Handle("/*", http.HandlerFunc(s.servePipeline))
	s.router = r

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ConnContext: func(ctx context.Context, _ net.Conn) context.Context {
			return context.WithValue(ctx, connKey{}, &conn{handler: newStack()})
		},
	}

	return s
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Health returns the probe state
func (s *Server) Health() *HealthCheck {
	return s.health
}

// ListenAndServe listens on the configured address and marks the server ready
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Server starting", "addr", l.Addr().String())
	s.health.SetReady(true)
	err := s.srv.Serve(l)
	if stderrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown marks the server unready and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.srv.Shutdown(ctx)
}

func (s *Server) servePipeline(w http.ResponseWriter, r *http.Request) {
	c, ok := r.Context().Value(connKey{}).(*conn)
	if !ok {
		// Not accepted by our listener, e.g. a test recorder
		c = &conn{handler: s.newStack()}
	}

	req, err := s.readRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := c.call(r.Context(), s.ready, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := service.Block(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeResponse(w, resp)
}

func (c *conn) call(ctx context.Context, wait time.Duration, req *service.Request) (service.Future, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	readyCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	if err := service.AwaitReady(readyCtx, c.handler); err != nil {
		if ctx.Err() == nil && readyCtx.Err() != nil {
			return nil, errors.NewUnavailableError("handler not ready", err)
		}
		return nil, err
	}
	return c.handler.Call(req), nil
}

func (s *Server) readRequest(w http.ResponseWriter, r *http.Request) (*service.Request, error) {
	var body []byte
	if r.Body != nil {
		reader := r.Body
		if s.maxBody > 0 {
			reader = http.MaxBytesReader(w, r.Body, s.maxBody)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				return nil, errors.WithDetails(
					errors.NewValidationError("request body too large"),
					map[string]interface{}{"limit": tooLarge.Limit},
				)
			}
			return nil, errors.NewValidationError("failed to read request body")
		}
		body = data
	}

	req := service.NewRequest(r.Method, r.URL.Path, body)
	req.Header = r.Header.Clone()
	return req.WithContext(r.Context()), nil
}

func writeResponse(w http.ResponseWriter, resp *service.Response) {
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	// The client went away; there is nobody to answer
	if stderrors.Is(err, context.Canceled) && r.Context().Err() != nil {
		s.logger.Debug("Client disconnected", "method", r.Method, "path", r.URL.Path)
		return
	}

	status := errors.HTTPStatus(err)
	if stderrors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	if errors.IsRateLimitError(err) || errors.IsUnavailableError(err) {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errors.ToErrorResponse(err))
}
