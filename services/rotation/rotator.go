// Package rotation implements round-robin selection over a fixed pool of
// API credentials shared by concurrent requests.
package rotation

import (
	"strings"
	"sync"

	"github.com/genrelay/genrelay/services"
	"go.uber.org/zap"
)

// CredentialRotator cycles through a fixed list of API keys, spreading
// outbound calls evenly across credentials. The pool is bound once at
// construction; only the cursor mutates afterwards.
type CredentialRotator struct {
	mu     sync.Mutex
	keys   []string
	cursor int
	logger *zap.Logger
}

// NewCredentialRotator builds a rotator from the configured keys. Empty and
// whitespace-only entries are filtered out; an all-empty list is legal here
// and surfaces as ErrNoCredentialsConfigured on first use.
func NewCredentialRotator(keys []string, logger *zap.Logger) *CredentialRotator {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			filtered = append(filtered, k)
		}
	}

	if len(filtered) == 0 {
		logger.Warn("credential rotator created with empty pool")
	} else {
		logger.Info("credential rotator initialized", zap.Int("pool_size", len(filtered)))
	}

	return &CredentialRotator{
		keys:   filtered,
		logger: logger,
	}
}

// Next returns the next credential in round-robin order and advances the
// shared cursor. Callers must abort the outbound call on
// ErrNoCredentialsConfigured rather than proceed with an empty credential.
func (r *CredentialRotator) Next() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return "", services.ErrNoCredentialsConfigured
	}

	key := r.keys[r.cursor%len(r.keys)]
	r.cursor = (r.cursor + 1) % len(r.keys)
	return key, nil
}

// Size returns the number of usable credentials in the pool.
func (r *CredentialRotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
