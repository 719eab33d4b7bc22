package jobs

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/internal/deck"
	"github.com/JaimeStill/deck-translate/pkg/pagination"
)

type memoryStore struct {
	mu       sync.RWMutex
	jobs     map[uuid.UUID]Job
	activity map[uuid.UUID][]Activity
	units    map[string][]deck.TextUnit
	nextID   int64
}

// NewMemoryStore creates a Store that keeps everything in process memory.
func NewMemoryStore() Store {
	return &memoryStore{
		jobs:     make(map[uuid.UUID]Job),
		activity: make(map[uuid.UUID][]Activity),
		units:    make(map[string][]deck.TextUnit),
	}
}

func (s *memoryStore) Create(ctx context.Context, j *Job) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; ok {
		return nil, ErrDuplicate
	}

	created := *j
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.jobs[j.ID] = created
	return &created, nil
}

func (s *memoryStore) Find(ctx context.Context, id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (s *memoryStore) Transition(ctx context.Context, id uuid.UUID, from, to Status, patch Patch) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if j.Status != from {
		return nil, ErrStatusConflict
	}

	now := time.Now().UTC()
	j.Status = to
	patch.apply(&j)
	j.UpdatedAt = now
	switch to {
	case StatusExtracting:
		j.StartedAt = &now
	case StatusCompleted, StatusFailed:
		j.CompletedAt = &now
	}

	s.jobs[id] = j
	return &j, nil
}

func (s *memoryStore) Progress(ctx context.Context, id uuid.UUID, processed, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != StatusTranslating {
		return nil
	}
	j.UnitsProcessed = max(j.UnitsProcessed, processed)
	j.UnitsTotal = total
	j.UpdatedAt = time.Now().UTC()
	s.jobs[id] = j
	return nil
}

// List filters and pages in memory, newest first. Sort fields are ignored.
func (s *memoryStore) List(ctx context.Context, filter Filter) (*Page, error) {
	page := filter.Page
	page.Normalize(pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	s.mu.RLock()
	var matched []Job
	for _, j := range s.jobs {
		if filter.matches(&j) {
			matched = append(matched, j)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	result := pagination.Paginate(matched, page)
	return &result, nil
}

func (s *memoryStore) Running(ctx context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var running []Job
	for _, j := range s.jobs {
		if j.Status == StatusExtracting || j.Status == StatusTranslating {
			running = append(running, j)
		}
	}
	slices.SortFunc(running, func(a, b Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return running, nil
}

func (s *memoryStore) AddActivity(ctx context.Context, a Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.activity[a.JobID] = append(s.activity[a.JobID], a)
	return nil
}

func (s *memoryStore) Activity(ctx context.Context, id uuid.UUID) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.activity[id]), nil
}

func (s *memoryStore) CachedUnits(ctx context.Context, contentHash string) ([]deck.TextUnit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units, ok := s.units[contentHash]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(units), true, nil
}

func (s *memoryStore) CacheUnits(ctx context.Context, contentHash string, units []deck.TextUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.units[contentHash]; !ok {
		s.units[contentHash] = slices.Clone(units)
	}
	return nil
}
