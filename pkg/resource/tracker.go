// pkg/resource/tracker.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-starfight/pkg/logging"
)

// Loader fetches one named asset
type Loader interface {
	Load(ctx context.Context, name string) error
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, name string) error

// Load implements Loader
func (f LoaderFunc) Load(ctx context.Context, name string) error {
	return f(ctx, name)
}

// BreakerSettings configures the circuit breaker around the loader
type BreakerSettings struct {
	MaxRequests            uint32
	Interval               time.Duration
	Timeout                time.Duration
	MaxConsecutiveFailures uint32
}

// DefaultBreakerSettings trips after five consecutive failures and probes
// again after ten seconds
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:            1,
		Interval:               time.Minute,
		Timeout:                10 * time.Second,
		MaxConsecutiveFailures: 5,
	}
}

// Tracker records which assets a level needs and runs callbacks once all of
// them are loaded. Simulation never waits on it.
type Tracker struct {
	mu        sync.Mutex
	breaker   *gobreaker.CircuitBreaker
	loader    Loader
	logger    *logging.Logger
	pending   map[string]struct{}
	loaded    map[string]struct{}
	failed    map[string]error
	callbacks []func()
}

// NewTracker creates a tracker loading assets through loader
func NewTracker(loader Loader, settings BreakerSettings, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Component("resource")

	breakerSettings := gobreaker.Settings{
		Name:        "asset-loader",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Tracker{
		breaker: gobreaker.NewCircuitBreaker(breakerSettings),
		loader:  loader,
		logger:  logger,
		pending: make(map[string]struct{}),
		loaded:  make(map[string]struct{}),
		failed:  make(map[string]error),
	}
}

// Acquire registers assets as needed. Assets already loaded stay loaded;
// failed ones are queued again.
func (t *Tracker) Acquire(names ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := t.loaded[name]; ok {
			continue
		}
		delete(t.failed, name)
		t.pending[name] = struct{}{}
	}
}

// IsReady reports whether every acquired asset is loaded
func (t *Tracker) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readyLocked()
}

func (t *Tracker) readyLocked() bool {
	return len(t.pending) == 0 && len(t.failed) == 0
}

// ExecuteWhenReady runs callback now if every asset is loaded, or after the
// Load call that completes them
func (t *Tracker) ExecuteWhenReady(callback func()) {
	t.mu.Lock()
	if !t.readyLocked() {
		t.callbacks = append(t.callbacks, callback)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	callback()
}

// Load fetches every pending asset through the circuit breaker. Failed
// assets are kept for a later Acquire and their errors joined.
func (t *Tracker) Load(ctx context.Context) error {
	names := t.Pending()

	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("loading cancelled: %w", err)
		}
		err := t.loadOne(ctx, name)

		t.mu.Lock()
		delete(t.pending, name)
		if err != nil {
			t.failed[name] = err
		} else {
			t.loaded[name] = struct{}{}
		}
		t.mu.Unlock()

		if err != nil {
			errs = append(errs, err)
		}
	}

	t.mu.Lock()
	var ready []func()
	if t.readyLocked() {
		ready = t.callbacks
		t.callbacks = nil
	}
	t.mu.Unlock()

	for _, callback := range ready {
		callback()
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (t *Tracker) loadOne(ctx context.Context, name string) error {
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return nil, t.loader.Load(ctx, name)
	})
	if err != nil {
		t.logger.Error(ctx, "asset load failed", err,
			"asset", name,
			"state", t.breaker.State().String(),
		)
		return fmt.Errorf("load %q: %w", name, err)
	}
	t.logger.Debug(ctx, "asset loaded", "asset", name)
	return nil
}

// Pending returns the names waiting to be loaded, sorted
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.pending)
}

// Loaded returns the names loaded so far, sorted
func (t *Tracker) Loaded() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.loaded)
}

// Failed returns the names whose last load failed, sorted
func (t *Tracker) Failed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.failed))
	for name := range t.failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State returns the circuit breaker state
func (t *Tracker) State() gobreaker.State {
	return t.breaker.State()
}

func sortedKeys(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
