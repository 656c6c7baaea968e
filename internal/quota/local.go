package quota

import (
	"context"
	"sync"
	"time"
)

// LocalStore is an in-process CounterStore for single-node deployments and
// tests. Windows are fixed, keyed by counter name, and pruned lazily.
type LocalStore struct {
	mu      sync.RWMutex
	windows map[string]*counterWindow
	now     func() time.Time
}

type counterWindow struct {
	mu      sync.Mutex
	count   int64
	resetAt time.Time
}

// NewLocalStore creates an empty in-process counter store.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		windows: make(map[string]*counterWindow),
		now:     time.Now,
	}
}

// Incr implements CounterStore with a fixed window per key.
func (s *LocalStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	w := s.getWindow(key)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := s.now()
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(window)
	}
	w.count++

	return w.count, w.resetAt.Sub(now), nil
}

// Close implements CounterStore; the local store holds no resources.
func (s *LocalStore) Close() error {
	return nil
}

func (s *LocalStore) getWindow(key string) *counterWindow {
	s.mu.RLock()
	w, exists := s.windows[key]
	s.mu.RUnlock()

	if exists {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock
	if w, exists := s.windows[key]; exists {
		return w
	}

	w = &counterWindow{}
	s.windows[key] = w
	return w
}

// Cleanup removes windows that expired before the cutoff to bound memory
// on long-running processes.
func (s *LocalStore) Cleanup(maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	for key, w := range s.windows {
		w.mu.Lock()
		if w.resetAt.Before(cutoff) {
			delete(s.windows, key)
		}
		w.mu.Unlock()
	}
}

// StartCleanupRoutine prunes expired windows on a fixed interval.
func (s *LocalStore) StartCleanupRoutine(interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			s.Cleanup(maxAge)
		}
	}()
}
