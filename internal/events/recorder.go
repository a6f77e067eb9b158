// Package events publishes one record per finished pipeline call. Records
// are queued in memory and handed to a Publisher by a background worker, so
// the call path never waits on the network.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcncl/hello-pipeline/internal/metrics"
)

// DefaultQueueSize is used when NewRecorder is given a non-positive size
const DefaultQueueSize = 1024

const publishTimeout = 10 * time.Second

// Event describes one finished call
type Event struct {
	RequestID  string    `json:"request_id,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status,omitempty"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e Event) attributes() map[string]string {
	return map[string]string{
		"method":  e.Method,
		"outcome": e.Outcome,
	}
}

// Recorder queues events for a Publisher
type Recorder struct {
	pub    Publisher
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a worker publishing queued events to pub
func NewRecorder(pub Publisher, queueSize int, logger *slog.Logger) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		pub:    pub,
		logger: logger,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues ev without blocking. It reports false when the event was
// dropped because the queue is full or the recorder is closed.
func (r *Recorder) Record(ev Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		metrics.RecordEvent(metrics.EventDropped)
		return false
	}

	select {
	case r.queue <- ev:
		return true
	default:
		metrics.RecordEvent(metrics.EventDropped)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for ev := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		msgID, err := r.pub.Publish(ctx, ev, ev.attributes())
		cancel()

		if err != nil {
			metrics.RecordEvent(metrics.EventFailed)
			r.logger.Error("Failed to publish request event",
				"error", err,
				"request_id", ev.RequestID,
			)
			continue
		}

		metrics.RecordEvent(metrics.EventPublished)
		r.logger.Debug("Published request event",
			"message_id", msgID,
			"request_id", ev.RequestID,
		)
	}
}

// Close stops accepting events, waits for the queue to drain, then closes
// the publisher. Events still queued when ctx ends are abandoned.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.pub.Close()
}
