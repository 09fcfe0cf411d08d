package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"campus-market-backend/internal/domains/returns/model"
	"campus-market-backend/pkg/cache"
)

const returnCacheKeyPrefix = "returns:detail:"

// cachedStore puts a read-through cache in front of GetByID. Only terminal
// requests are cached: they never change again, so no invalidation is needed.
type cachedStore struct {
	Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedStore wraps store. Writes and listings pass straight through.
func NewCachedStore(store Store, c cache.Cache, ttl time.Duration) Store {
	return &cachedStore{Store: store, cache: c, ttl: ttl}
}

func returnCacheKey(id uuid.UUID) string {
	return returnCacheKeyPrefix + id.String()
}

func (s *cachedStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	key := returnCacheKey(id)

	var cached model.ReturnRequest
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("return cache read failed, falling back to store")
	} else if found {
		return &cached, nil
	}

	req, err := s.Store.GetByID(ctx, id)
	if err != nil || req == nil {
		return req, err
	}

	if req.State.IsTerminal() {
		if err := s.cache.Set(ctx, key, req, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("return cache write failed")
		}
	}
	return req, nil
}
