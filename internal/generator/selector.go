package generator

import (
	"context"
	"fmt"

	"adaptive-quiz-service/internal/domain"
)

// ResourceStore fetches content resources matching a subject with difficulty
// at or below the ceiling (Postgres, Redis cache, in-memory, ...).
type ResourceStore interface {
	FetchResources(ctx context.Context, subject string, maxDifficulty, limit int) ([]domain.Resource, error)
}

// Selector picks a bounded set of resources to ground quiz generation.
type Selector struct {
	store ResourceStore
	limit int
}

// NewSelector creates a Selector returning at most limit resources per call.
func NewSelector(store ResourceStore, limit int) *Selector {
	if limit <= 0 {
		limit = 3
	}
	return &Selector{store: store, limit: limit}
}

// Select returns up to the configured limit of resources for the subject at
// or below difficultyCeiling. An empty result is a hard stop: generation has
// nothing to ground on.
func (s *Selector) Select(ctx context.Context, subject string, difficultyCeiling int) ([]domain.Resource, error) {
	resources, err := s.store.FetchResources(ctx, subject, difficultyCeiling, s.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("%w: subject %q up to difficulty %d", domain.ErrNoContentAvailable, subject, difficultyCeiling)
	}
	return resources, nil
}
