// Package health exposes liveness and readiness probes for a running
// battle. Checks are registered by the host and evaluated on every
// readiness request.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// HealthCheck is one probed component
type HealthCheck interface {
	Name() string
	// Check returns an error while the component is unhealthy
	Check(ctx context.Context) error
}

// HealthStatus is the aggregated probe result
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of a single check
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker holds the registered checks
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a checker without checks
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a check, replacing one with the same name
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck drops a check by name
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in order
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check. The result is healthy only if all pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth, len(hc.checks)),
	}
	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: "healthy"}
	}
	return status
}

// LivenessHandler answers 200 while the process serves requests
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs the checks and answers 503 if any fails
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// Handler routes /health/live and /health/ready
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", hc.LivenessHandler)
	mux.HandleFunc("/health/ready", hc.ReadinessHandler)
	return mux
}

// Heartbeat is beaten by the simulation loop after every tick. It is safe
// to read from the probe goroutine.
type Heartbeat struct {
	last    atomic.Int64
	ticks   atomic.Uint64
	stopped atomic.Bool
}

// Beat records a completed tick
func (h *Heartbeat) Beat(now time.Time) {
	h.last.Store(now.UnixNano())
	h.ticks.Add(1)
}

// Stop marks the simulation as finished
func (h *Heartbeat) Stop() {
	h.stopped.Store(true)
}

// Ticks returns the number of beats
func (h *Heartbeat) Ticks() uint64 {
	return h.ticks.Load()
}

// Last returns the time of the latest beat, zero before the first
func (h *Heartbeat) Last() time.Time {
	nanos := h.last.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// SimulationHealthCheck fails when the tick loop stopped or stalled
type SimulationHealthCheck struct {
	heartbeat *Heartbeat
	maxStall  time.Duration
	now       func() time.Time
}

// NewSimulationHealthCheck watches a heartbeat; a gap longer than maxStall
// between ticks is unhealthy
func NewSimulationHealthCheck(heartbeat *Heartbeat, maxStall time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{
		heartbeat: heartbeat,
		maxStall:  maxStall,
		now:       time.Now,
	}
}

// Name implements HealthCheck
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check implements HealthCheck
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	if s.heartbeat.stopped.Load() {
		return fmt.Errorf("simulation stopped after %d ticks", s.heartbeat.Ticks())
	}
	last := s.heartbeat.Last()
	if last.IsZero() {
		return fmt.Errorf("simulation has not ticked yet")
	}
	if stall := s.now().Sub(last); stall > s.maxStall {
		return fmt.Errorf("no tick for %v", stall.Round(time.Millisecond))
	}
	return nil
}

// MemoryHealthCheck fails when the heap grows beyond a limit
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a memory check. A nil getMemoryUsage reads
// the Go heap size.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = heapMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

func heapMB() int64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return int64(stats.HeapAlloc / (1024 * 1024))
}

// Name implements HealthCheck
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check implements HealthCheck
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}
