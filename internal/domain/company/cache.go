package company

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKey = "payslipgen:company_settings"

// CachedStore is a read-through Redis cache in front of the settings table.
// Redis failures degrade to direct store reads.
type CachedStore struct {
	Store StoreAPI
	Redis redis.UniversalClient
	TTL   time.Duration
	Log   zerolog.Logger
}

func NewCachedStore(store StoreAPI, client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *CachedStore {
	return &CachedStore{Store: store, Redis: client, TTL: ttl, Log: log}
}

func (c *CachedStore) Get(ctx context.Context) (*Settings, error) {
	raw, err := c.Redis.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var cached *Settings
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.Log.Warn().Msg("discarding undecodable cached company settings")
	case errors.Is(err, redis.Nil):
	default:
		c.Log.Warn().Err(err).Msg("company settings cache read failed")
	}

	settings, err := c.Store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(settings); err == nil {
		if err := c.Redis.Set(ctx, cacheKey, payload, c.TTL).Err(); err != nil {
			c.Log.Warn().Err(err).Msg("company settings cache write failed")
		}
	}
	return settings, nil
}

func (c *CachedStore) Upsert(ctx context.Context, settings Settings) (*Settings, error) {
	saved, err := c.Store.Upsert(ctx, settings)
	if err != nil {
		return nil, err
	}
	if err := c.Redis.Del(ctx, cacheKey).Err(); err != nil {
		c.Log.Warn().Err(err).Msg("company settings cache invalidation failed")
	}
	return saved, nil
}
