package concept

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/playground/internal/platform/cache"
)

// Store is the byte cache CachedRepository writes through. *cache.Cache
// satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedRepository is a read-through cache in front of another Repository.
// Cache errors are logged and never fail a fetch.
type CachedRepository struct {
	next  Repository
	store Store
	ttl   time.Duration
}

// NewCachedRepository wraps next with a cache keyed by topic.
func NewCachedRepository(next Repository, store Store, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, store: store, ttl: ttl}
}

func (r *CachedRepository) Concepts(ctx context.Context, topic string) (*Set, error) {
	key := cacheKey(topic)

	data, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		set, decodeErr := Decode(data)
		if decodeErr == nil {
			slog.Debug("concepts served from cache", "topic", topic)
			return set, nil
		}
		slog.Warn("dropping unreadable cached concepts", "topic", topic, "error", decodeErr)
		if err := r.store.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete cached concepts", "topic", topic, "error", err)
		}
	case !errors.Is(err, cache.ErrMiss):
		slog.Warn("concept cache unavailable", "topic", topic, "error", err)
	}

	set, err := r.next.Concepts(ctx, topic)
	if err != nil {
		return nil, err
	}

	// Empty topics are not cached so new content shows up on the next load.
	if set.Len() == 0 {
		return set, nil
	}

	encoded, err := set.MarshalJSON()
	if err != nil {
		slog.Warn("failed to encode concepts for cache", "topic", topic, "error", err)
		return set, nil
	}
	if err := r.store.Set(ctx, key, encoded, r.ttl); err != nil {
		slog.Warn("failed to cache concepts", "topic", topic, "error", err)
	}
	return set, nil
}

func cacheKey(topic string) string {
	return "concepts:" + topic
}
