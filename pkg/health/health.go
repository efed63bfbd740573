// Package health implements liveness and readiness probes for the API
// server. Checks run on background tickers; the probe endpoints serve the
// last observed state, so a slow dependency can never slow the probe itself.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes a single component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Consecutive-result thresholds keep a single stray failure from flapping
// the probe.
const (
	failuresToTrip     = 3
	successesToRestore = 1
)

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	healthy bool
	lastErr error
	fails   int
	oks     int
}

func (c *check) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.observe(c.fn(ctx))
}

func (c *check) observe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastErr = err
	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= failuresToTrip {
			c.healthy = false
		}
		return
	}
	c.fails = 0
	c.oks++
	if c.oks >= successesToRestore {
		c.healthy = true
	}
}

func (c *check) status() (healthy bool, lastErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy, c.lastErr
}

// Health runs registered checks and answers liveness and readiness probes.
// Readiness additionally requires SetReady(true): the server flips it off
// first thing during graceful shutdown to drain traffic.
type Health struct {
	accepting atomic.Bool

	mu     sync.Mutex
	live   []*check
	ready  []*check
	cancel context.CancelFunc
}

// New creates a Health with no checks, in the not-ready state.
func New() *Health {
	return &Health{}
}

func newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	// Healthy until failuresToTrip consecutive failures say otherwise.
	return &check{name: name, timeout: timeout, fn: fn, healthy: true}
}

// AddLivenessCheck registers a check for the /livez probe. Liveness failures
// mean the process itself is wedged and should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a check for the /readyz probe. Readiness
// failures mean the service should stop receiving traffic until its
// dependencies recover.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = append(h.ready, newCheck(name, timeout, fn))
}

// Start launches one background goroutine per registered check, each
// re-running its check at the given interval until the context is cancelled.
// Register every check before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*check, 0, len(h.live)+len(h.ready))
	checks = append(checks, h.live...)
	checks = append(checks, h.ready...)
	h.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			c.runOnce(ctx)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.runOnce(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels the background check goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.accepting.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check passes.
func (h *Health) IsReady() bool {
	if !h.accepting.Load() {
		return false
	}
	for _, c := range h.snapshotReady() {
		if ok, _ := c.status(); !ok {
			return false
		}
	}
	return true
}

func (h *Health) snapshotLive() []*check {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*check(nil), h.live...)
}

func (h *Health) snapshotReady() []*check {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*check(nil), h.ready...)
}

type probeResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveEndpoint serves the /livez probe: 200 when every liveness check
// passes, 503 with the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, failures(h.snapshotLive()))
}

// ReadyEndpoint serves the /readyz probe: 200 when the service is marked
// ready and every readiness check passes, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshotReady())
	if !h.accepting.Load() {
		failed["_gate"] = "service not marked ready"
	}
	writeProbe(w, failed)
}

func failures(checks []*check) map[string]string {
	failed := make(map[string]string)
	for _, c := range checks {
		ok, err := c.status()
		if ok {
			continue
		}
		msg := "check failing"
		if err != nil {
			msg = err.Error()
		}
		failed[c.name] = msg
	}
	return failed
}

func writeProbe(w http.ResponseWriter, failed map[string]string) {
	resp := probeResponse{Status: "pass"}
	status := http.StatusOK
	if len(failed) > 0 {
		resp = probeResponse{Status: "fail", Failures: failed}
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
