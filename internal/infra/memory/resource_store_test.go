package memory

import (
	"context"
	"testing"

	"adaptive-quiz-service/internal/domain"
)

func TestFetchResourcesFiltersAndOrders(t *testing.T) {
	store := NewResourceStore([]domain.Resource{
		{ID: "r3", Subject: "math", Difficulty: 3},
		{ID: "r1", Subject: "math", Difficulty: 1},
		{ID: "r2", Subject: "math", Difficulty: 3},
		{ID: "r4", Subject: "math", Difficulty: 5},
		{ID: "r5", Subject: "physics", Difficulty: 1},
	})

	got, err := store.FetchResources(context.Background(), "math", 3, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(got))
	}
	if got[0].ID != "r2" || got[1].ID != "r3" {
		t.Fatalf("expected hardest-first with ID tie-break, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestFetchResourcesEmptyMatch(t *testing.T) {
	store := NewResourceStore(nil)
	got, err := store.FetchResources(context.Background(), "math", 5, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}
