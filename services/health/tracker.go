// Package health tracks transient failures for any pool of identities.
// Entries expire after a fixed window; expiry is evaluated lazily on read so
// no background timer is needed and tests can inject a clock.
package health

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracker is an expiring exclusion set. Identities marked unhealthy are
// excluded from selection until their window elapses, after which they are
// eligible again without any external reset.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]time.Time // identity -> expiry
	window  time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewTracker creates a tracker with the given exclusion window.
func NewTracker(window time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		entries: make(map[string]time.Time),
		window:  window,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock overrides the time source. Test hook.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	return t
}

// MarkUnhealthy inserts the identity with expiry = now + window. Marking an
// already-present identity refreshes its expiry.
func (t *Tracker) MarkUnhealthy(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry := t.now().Add(t.window)
	t.entries[id] = expiry
	t.logger.Warn("identity marked unhealthy",
		zap.String("id", id),
		zap.Time("eligible_at", expiry))
}

// IsHealthy reports whether the identity is eligible for selection. An entry
// whose expiry has passed is evicted as a side effect.
func (t *Tracker) IsHealthy(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry, ok := t.entries[id]
	if !ok {
		return true
	}
	if t.now().After(expiry) {
		delete(t.entries, id)
		t.logger.Info("identity restored after exclusion window", zap.String("id", id))
		return true
	}
	return false
}

// ResetAll clears every entry. Used by the selector when the entire pool is
// excluded, where availability takes priority over continued exclusion.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) > 0 {
		t.logger.Warn("clearing all unhealthy entries", zap.Int("count", len(t.entries)))
	}
	t.entries = make(map[string]time.Time)
}

// UnhealthyCount returns the number of identities currently excluded,
// evicting expired entries on the way.
func (t *Tracker) UnhealthyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, expiry := range t.entries {
		if now.After(expiry) {
			delete(t.entries, id)
		}
	}
	return len(t.entries)
}
