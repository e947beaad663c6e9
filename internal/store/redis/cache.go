package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/domain"
)

// DefaultSuggestionTTL is the default TTL for cached suggestions (24 hours)
const DefaultSuggestionTTL = 24 * time.Hour

// SuggestionCache keeps title and classification suggestions keyed by URL so
// repeated lookups skip the page fetch and the LLM call.
type SuggestionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSuggestionCache creates a cache on client. A non-positive ttl uses the default.
func NewSuggestionCache(client *redis.Client, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = DefaultSuggestionTTL
	}
	return &SuggestionCache{client: client, ttl: ttl}
}

// CacheTitle stores the suggested title of url
func (c *SuggestionCache) CacheTitle(ctx context.Context, url, title string) error {
	if err := c.client.Set(ctx, TitleKey(url), title, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache title: %w", err)
	}
	return nil
}

// CachedTitle returns the cached title of url. ok is false on a miss.
func (c *SuggestionCache) CachedTitle(ctx context.Context, url string) (title string, ok bool, err error) {
	title, err = c.client.Get(ctx, TitleKey(url)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil // Cache miss
		}
		return "", false, fmt.Errorf("failed to get cached title: %w", err)
	}
	return title, true, nil
}

// CacheClassification stores the suggested tags and category of url
func (c *SuggestionCache) CacheClassification(ctx context.Context, url string, cl domain.Classification) error {
	data, err := json.Marshal(cl)
	if err != nil {
		return fmt.Errorf("failed to marshal classification: %w", err)
	}
	if err := c.client.Set(ctx, TagsKey(url), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache classification: %w", err)
	}
	return nil
}

// CachedClassification returns the cached classification of url. ok is false on a miss.
func (c *SuggestionCache) CachedClassification(ctx context.Context, url string) (cl domain.Classification, ok bool, err error) {
	data, err := c.client.Get(ctx, TagsKey(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cl, false, nil
		}
		return cl, false, fmt.Errorf("failed to get cached classification: %w", err)
	}
	if err := json.Unmarshal(data, &cl); err != nil {
		return domain.Classification{}, false, fmt.Errorf("failed to unmarshal classification: %w", err)
	}
	return cl, true, nil
}

// Invalidate removes both cached suggestions of url
func (c *SuggestionCache) Invalidate(ctx context.Context, url string) error {
	if err := c.client.Del(ctx, TitleKey(url), TagsKey(url)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate suggestions: %w", err)
	}
	return nil
}

// Flush removes all cached suggestions and returns how many keys were deleted
func (c *SuggestionCache) Flush(ctx context.Context) (int, error) {
	deleted := 0
	iter := c.client.Scan(ctx, 0, KeyPrefixSuggest+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("failed to delete suggestion key: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to flush suggestions: %w", err)
	}
	return deleted, nil
}
