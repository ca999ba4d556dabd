package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"session-gateway/pkg/logger"
)

const (
	cacheKeyPrefix   = "subscription:tier:"
	negativeSentinel = "none"
)

// CachedRepository is a read-through Redis cache in front of another Repository.
// Redis errors are logged and fall through to the backing store.
type CachedRepository struct {
	next Repository
	rdb  redis.UniversalClient
	ttl  time.Duration
}

func NewCachedRepository(next Repository, rdb redis.UniversalClient, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(userID string) string { return cacheKeyPrefix + userID }

func (r *CachedRepository) Current(ctx context.Context, userID string) (Subscription, error) {
	log := logger.From(ctx)
	key := cacheKey(userID)

	raw, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == negativeSentinel {
			return Subscription{}, ErrNotFound
		}
		var s Subscription
		if jerr := json.Unmarshal([]byte(raw), &s); jerr == nil {
			return s, nil
		}
		log.Warn("subscription cache entry unreadable", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("subscription cache read failed", "err", err)
	}

	s, err := r.next.Current(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		r.store(ctx, key, negativeSentinel)
		return Subscription{}, ErrNotFound
	case err != nil:
		return Subscription{}, err
	}

	if b, jerr := json.Marshal(s); jerr == nil {
		r.store(ctx, key, string(b))
	}
	return s, nil
}

func (r *CachedRepository) store(ctx context.Context, key, value string) {
	if ctx.Err() != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		logger.From(ctx).Warn("subscription cache write failed", "err", err)
	}
}
