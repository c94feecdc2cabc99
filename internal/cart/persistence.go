package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/scentlane/storefront-backend/internal/pricing"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/redis"
)

// ErrCorrupted marks a stored cart payload that no longer decodes. Hydration
// treats it as an empty cart rather than failing the request.
var ErrCorrupted = errors.New("stored cart payload is corrupted")

// Persistence loads and saves the serialized cart for a session.
type Persistence interface {
	Load(ctx context.Context, sessionID string) ([]pricing.LineItem, bool, error)
	Save(ctx context.Context, sessionID string, items []pricing.LineItem) error
	Delete(ctx context.Context, sessionID string) error
}

type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisPersistence keeps each session's cart under a single key so the cart
// survives restarts and is shared across instances.
type RedisPersistence struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisPersistence builds a cart persistence layer on the shared redis client.
func NewRedisPersistence(client *redis.Client, ttl time.Duration) (*RedisPersistence, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisPersistence{client: client, ttl: ttl}, nil
}

// Load returns the stored items and whether a cart existed for the session.
func (p *RedisPersistence) Load(ctx context.Context, sessionID string) ([]pricing.LineItem, bool, error) {
	raw, err := p.client.Get(ctx, p.client.CartKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeHydration, err, "loading cart")
	}

	var items []pricing.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, true, fmt.Errorf("%w: %v", ErrCorrupted, err)
		}
	}
	return items, true, nil
}

// Save writes the full cart snapshot, refreshing its TTL.
func (p *RedisPersistence) Save(ctx context.Context, sessionID string, items []pricing.LineItem) error {
	if items == nil {
		items = []pricing.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding cart")
	}
	if err := p.client.Set(ctx, p.client.CartKey(sessionID), string(raw), p.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart")
	}
	return nil
}

// Delete removes the stored cart for the session.
func (p *RedisPersistence) Delete(ctx context.Context, sessionID string) error {
	if err := p.client.Del(ctx, p.client.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting cart")
	}
	return nil
}
