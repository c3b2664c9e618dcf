// Package dedupe suppresses webhook replays. GitHub delivers at least once;
// the store guarantees a given dedupe key is only treated as first-seen once
// within its TTL window.
package dedupe

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a recorded key suppresses replays. Lookups within
// the window do not extend it.
const DefaultTTL = 24 * time.Hour

// cleanupThreshold bounds the memory store: once the map grows past this many
// entries, expired ones are swept opportunistically. Best effort, not a cap.
const cleanupThreshold = 10000

// Store answers "have I already recorded this key within its TTL?"
// atomically. Implementations must be safe under concurrent calls for the
// same key, since GitHub may deliver retries in parallel.
type Store interface {
	// IsDuplicateAndRecord returns true only if key was already recorded
	// and has not expired. Otherwise it records key with a fresh TTL and
	// returns false.
	IsDuplicateAndRecord(ctx context.Context, key string) (bool, error)
	Close() error
}

// MemoryStore keeps keys in process memory. Suitable for single-instance
// deployments and tests; it provides no cross-instance correctness.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a MemoryStore with the given TTL; ttl <= 0 means
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) IsDuplicateAndRecord(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.entries[key]; ok && exp.After(now) {
		return true, nil
	}

	if len(s.entries) > cleanupThreshold {
		for k, exp := range s.entries {
			if !exp.After(now) {
				delete(s.entries, k)
			}
		}
	}

	s.entries[key] = now.Add(s.ttl)
	return false, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
