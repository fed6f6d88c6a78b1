package routing

import (
	"sync"
	"time"

	"github.com/genrelay/genrelay/models"
	"github.com/genrelay/genrelay/services"
	"github.com/genrelay/genrelay/services/health"
	"go.uber.org/zap"
)

// Selector picks backend workers in round-robin order over the currently
// healthy subset of a fixed pool. The pool ordering is stable for the life
// of the process; only unhealthy-set membership and the cursor change.
type Selector struct {
	mu      sync.Mutex
	pool    []string
	cursor  int
	tracker *health.Tracker
	logger  *zap.Logger
}

// NewSelector creates a selector over the given worker pool. The pool must
// not be empty.
func NewSelector(pool []string, tracker *health.Tracker, logger *zap.Logger) (*Selector, error) {
	if len(pool) == 0 {
		return nil, services.ErrEmptyWorkerPool
	}

	workers := make([]string, len(pool))
	copy(workers, pool)

	logger.Info("backend selector initialized", zap.Int("pool_size", len(workers)))
	return &Selector{
		pool:    workers,
		tracker: tracker,
		logger:  logger,
	}, nil
}

// Next returns the next eligible backend. Exclusions compact the rotation:
// the cursor advances modulo the available subset, not the full pool, so
// selection never biases toward the start of the pool. If every member is
// excluded the unhealthy set is cleared and the full pool serves again,
// starting from its first member.
func (s *Selector) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	available := s.availableLocked()
	if len(available) == 0 {
		s.logger.Warn("entire worker pool unhealthy, resetting exclusions")
		s.tracker.ResetAll()
		s.cursor = 0
		available = s.pool
	}

	backend := available[s.cursor%len(available)]
	s.cursor = (s.cursor + 1) % len(available)
	return backend
}

// MarkUnhealthy excludes the backend from selection until its window elapses.
func (s *Selector) MarkUnhealthy(backend string) {
	s.tracker.MarkUnhealthy(backend)
}

// Status returns a read-only snapshot of the selector. It never mutates the
// cursor; expired unhealthy entries may be evicted as part of counting.
func (s *Selector) Status() models.SelectorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	unhealthy := s.tracker.UnhealthyCount()
	return models.SelectorStatus{
		PoolSize:       len(s.pool),
		UnhealthyCount: unhealthy,
		HealthyCount:   len(s.pool) - unhealthy,
		CursorPosition: s.cursor,
		GeneratedAt:    time.Now().UTC(),
	}
}

// Pool returns a copy of the full worker pool in its original order.
func (s *Selector) Pool() []string {
	out := make([]string, len(s.pool))
	copy(out, s.pool)
	return out
}

func (s *Selector) availableLocked() []string {
	available := make([]string, 0, len(s.pool))
	for _, backend := range s.pool {
		if s.tracker.IsHealthy(backend) {
			available = append(available, backend)
		}
	}
	return available
}
