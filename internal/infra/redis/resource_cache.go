package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/generator"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ResourceCache caches resource listings in Redis and falls back to the
// backing store on cache miss. Entries are stored as:
//
//	SET resources:{subject}:{maxDifficulty}:{limit} <json array> EX ttl
//
// Singleflight collapses concurrent misses for the same key into one store
// query, and the TTL carries jitter so hot keys don't expire in lockstep.
type ResourceCache struct {
	client *redis.Client
	store  generator.ResourceStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewResourceCache(client *redis.Client, store generator.ResourceStore, ttl time.Duration) *ResourceCache {
	return &ResourceCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ResourceCache) FetchResources(ctx context.Context, subject string, maxDifficulty, limit int) ([]domain.Resource, error) {
	key := c.key(subject, maxDifficulty, limit)

	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		if resources, err := decodeResources(cached); err == nil {
			return resources, nil
		}
		// A corrupt entry is dropped and refetched.
		_ = c.client.Del(ctx, key).Err()
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if cached, err := c.client.Get(ctx, key).Result(); err == nil {
			if resources, err := decodeResources(cached); err == nil {
				return resources, nil
			}
		}

		resources, err := c.store.FetchResources(ctx, subject, maxDifficulty, limit)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(resources); err == nil {
			_ = c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err()
		}
		return resources, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Resource), nil
}

func (c *ResourceCache) key(subject string, maxDifficulty, limit int) string {
	return fmt.Sprintf("resources:%s:%d:%d", subject, maxDifficulty, limit)
}

func decodeResources(payload string) ([]domain.Resource, error) {
	var resources []domain.Resource
	if err := json.Unmarshal([]byte(payload), &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

func (c *ResourceCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
