package memory

import (
	"context"
	"sort"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// ResourceStore is an in-memory implementation of generator.ResourceStore,
// useful for tests and for running without Postgres.
type ResourceStore struct {
	mu        sync.RWMutex
	resources []domain.Resource
}

// NewResourceStore creates a store seeded with the given resources.
func NewResourceStore(resources []domain.Resource) *ResourceStore {
	return &ResourceStore{resources: resources}
}

// Add registers another resource.
func (s *ResourceStore) Add(r domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, r)
}

// FetchResources returns up to limit resources matching the subject with
// difficulty at or below maxDifficulty, hardest first, ties broken by ID so
// the same inputs return a stable set.
func (s *ResourceStore) FetchResources(_ context.Context, subject string, maxDifficulty, limit int) ([]domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Resource, 0, limit)
	for _, r := range s.resources {
		if r.Subject == subject && r.Difficulty <= maxDifficulty {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Difficulty != matched[j].Difficulty {
			return matched[i].Difficulty > matched[j].Difficulty
		}
		return matched[i].ID < matched[j].ID
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
