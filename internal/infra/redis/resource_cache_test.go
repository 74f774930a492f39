package redis

import (
	"context"
	"testing"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestResourceCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	store := &countingStore{
		ResourceStore: memory.NewResourceStore(sampleResources()),
	}
	cache := NewResourceCache(client, store, time.Minute)

	resources, err := cache.FetchResources(context.Background(), "math", 2, 3)
	if err != nil {
		t.Fatalf("fetch resources: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	if store.calls != 1 {
		t.Fatalf("expected store called once, got %d", store.calls)
	}

	// Second call should hit cache, store not incremented.
	cached, err := cache.FetchResources(context.Background(), "math", 2, 3)
	if err != nil {
		t.Fatalf("fetch from cache: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if len(cached) != 2 || cached[0].ID != resources[0].ID {
		t.Fatalf("cache returned different resources: %+v", cached)
	}

	// A different arg tuple is a different key.
	if _, err := cache.FetchResources(context.Background(), "math", 1, 3); err != nil {
		t.Fatalf("fetch narrower: %v", err)
	}
	if store.calls != 2 {
		t.Fatalf("expected second store call, got %d", store.calls)
	}
}

func TestResourceCacheDropsCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	if err := mr.Set("resources:math:2:3", "not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	store := &countingStore{ResourceStore: memory.NewResourceStore(sampleResources())}
	cache := NewResourceCache(client, store, time.Minute)

	resources, err := cache.FetchResources(context.Background(), "math", 2, 3)
	if err != nil {
		t.Fatalf("fetch resources: %v", err)
	}
	if len(resources) != 2 || store.calls != 1 {
		t.Fatalf("expected refetch past corrupt entry, got %d resources, %d calls", len(resources), store.calls)
	}
}

type countingStore struct {
	ResourceStore interface {
		FetchResources(ctx context.Context, subject string, maxDifficulty, limit int) ([]domain.Resource, error)
	}
	calls int
}

func (s *countingStore) FetchResources(ctx context.Context, subject string, maxDifficulty, limit int) ([]domain.Resource, error) {
	s.calls++
	return s.ResourceStore.FetchResources(ctx, subject, maxDifficulty, limit)
}

func sampleResources() []domain.Resource {
	return []domain.Resource{
		{ID: "r1", Subject: "math", Difficulty: 1, Locator: "gs://content/r1.pdf", Language: "en"},
		{ID: "r2", Subject: "math", Difficulty: 2, Locator: "gs://content/r2.pdf", Language: "en"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
