// Package health provides liveness and readiness probes for the agent.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Status of a probe.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Response is the JSON body returned by the probes.
type Response struct {
	Status     Status            `json:"status"`
	Components map[string]Status `json:"components,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// CheckFunc returns nil when the component is healthy.
type CheckFunc func() error

// Checker aggregates named readiness checks and a shutdown flag.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	shuttingDown atomic.Bool
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds a named readiness check, evaluated on each /ready request.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// SetShuttingDown makes both probes report down.
func (c *Checker) SetShuttingDown() {
	c.shuttingDown.Store(true)
}

// LiveHandler reports whether the process is running and not shutting down.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.shuttingDown.Load() {
			writeJSON(w, http.StatusServiceUnavailable, Response{Status: StatusDown, Timestamp: now()})
			return
		}
		writeJSON(w, http.StatusOK, Response{Status: StatusUp, Timestamp: now()})
	}
}

// ReadyHandler evaluates every registered check; any failure means 503.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: StatusUp, Components: map[string]Status{}, Timestamp: now()}
		code := http.StatusOK

		if c.shuttingDown.Load() {
			resp.Status = StatusDown
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		c.mu.RLock()
		for name, check := range c.checks {
			if err := check(); err != nil {
				resp.Components[name] = StatusDown
				resp.Status = StatusDown
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = StatusUp
		}
		c.mu.RUnlock()

		writeJSON(w, code, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
