package checkout

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

type buyNowRedis interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	BuyNowKey(sessionID string) string
}

// BuyNowStore stages the single item for a direct purchase. Snapshots expire
// on their own, so abandoning a buy-now flow needs no cleanup.
type BuyNowStore struct {
	client buyNowRedis
	ttl    time.Duration
}

// NewBuyNowStore builds a buy-now snapshot store on the shared redis client.
func NewBuyNowStore(client *redis.Client, ttl time.Duration) (*BuyNowStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("buy-now ttl must be positive")
	}
	return &BuyNowStore{client: client, ttl: ttl}, nil
}

// Put stages the item for the session, replacing any previous snapshot.
func (s *BuyNowStore) Put(ctx context.Context, sessionID string, item pricing.LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding buy-now item")
	}
	if err := s.client.Set(ctx, s.client.BuyNowKey(sessionID), string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "staging buy-now item")
	}
	return nil
}

// Get returns the staged item and whether one exists.
func (s *BuyNowStore) Get(ctx context.Context, sessionID string) (pricing.LineItem, bool, error) {
	raw, err := s.client.Get(ctx, s.client.BuyNowKey(sessionID))
	if errors.Is(err, goredis.Nil) {
		return pricing.LineItem{}, false, nil
	}
	if err != nil {
		return pricing.LineItem{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading buy-now item")
	}

	var item pricing.LineItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return pricing.LineItem{}, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding buy-now item")
	}
	return item, true, nil
}

// Delete drops the staged item, if any.
func (s *BuyNowStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.BuyNowKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting buy-now item")
	}
	return nil
}
