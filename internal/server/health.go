package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthCheck answers the liveness and readiness probes. The server flips
// readiness on once it accepts connections and off as soon as it drains.
type HealthCheck struct {
	isReady *atomic.Bool
	started time.Time
}

// healthStatus is the probe response body
type healthStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func NewHealthCheck() *HealthCheck {
	return &HealthCheck{
		isReady: &atomic.Bool{},
		started: time.Now(),
	}
}

// HealthHandler always reports healthy while the process is up
func (h *HealthCheck) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, "healthy")
}

// ReadyHandler reports whether new pipeline traffic is accepted
func (h *HealthCheck) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	h.write(w, http.StatusOK, "ready")
}

func (h *HealthCheck) write(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthStatus{
		Status: state,
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

// SetReady marks the service as ready to receive traffic
func (h *HealthCheck) SetReady(ready bool) {
	h.isReady.Store(ready)
}

// Ready reports the current readiness
func (h *HealthCheck) Ready() bool {
	return h.isReady.Load()
}
