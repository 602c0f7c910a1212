// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"
)

// Stats summarizes the tracker for monitoring
type Stats struct {
	Pending int    `json:"pending"`
	Loaded  int    `json:"loaded"`
	Failed  int    `json:"failed"`
	Breaker string `json:"breaker"`
}

// Stats returns the current asset counts
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Pending: len(t.pending),
		Loaded:  len(t.loaded),
		Failed:  len(t.failed),
		Breaker: t.breaker.State().String(),
	}
}

// Name returns the name of this health check.
func (t *Tracker) Name() string {
	return "resource"
}

// Check fails while the loader circuit is open or an asset failed to load.
func (t *Tracker) Check(ctx context.Context) error {
	stats := t.Stats()

	if t.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("asset loader circuit is open")
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d assets failed to load", stats.Failed)
	}
	return nil
}
