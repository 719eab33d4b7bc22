package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

type memoryBucket struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

func (b *memoryBucket) expired(now time.Time) bool {
	return !now.Before(b.windowStart.Add(b.window))
}

// MemoryStore keeps buckets in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*memoryBucket),
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || b.expired(now) {
		b = &memoryBucket{windowStart: now, window: window}
		s.buckets[key] = b
	}
	b.count++

	return Bucket{Count: b.count, WindowStart: b.windowStart}, nil
}

// Sweep removes expired buckets and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, b := range s.buckets {
		if b.expired(now) {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Start sweeps expired buckets every interval until the coordinator shuts down.
func (s *MemoryStore) Start(lc *lifecycle.Coordinator, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-lc.Context().Done():
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}
