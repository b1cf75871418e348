// Package redis implements the live cart session store on Redis. The cart
// is one JSON blob per seller key, the server-side equivalent of the
// key-value blob the browser client used to keep: last writer wins, no
// merging across sessions.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
)

const keyPrefix = "cart:"

var _ cart.Store = (*CartStore)(nil)

// CartStore persists carts in Redis with an idle TTL: abandoned carts
// expire instead of accumulating.
type CartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCartStore creates a CartStore. A non-positive ttl disables expiry.
func NewCartStore(rdb *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{rdb: rdb, ttl: ttl}
}

// NewClient connects to Redis using a URL (redis://...).
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return redis.NewClient(opts), nil
}

// Get loads the seller's cart. A missing key yields a fresh empty cart.
func (s *CartStore) Get(ctx context.Context, sellerKey string) (*cart.Cart, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+sellerKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart.New(), nil
		}
		return nil, errors.Wrap(err, "get cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	c.Mode = cart.ParseMode(string(c.Mode))
	return &c, nil
}

// Save replaces the seller's cart blob and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, sellerKey string, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if err := s.rdb.Set(ctx, keyPrefix+sellerKey, raw, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Clear removes the seller's cart blob entirely.
func (s *CartStore) Clear(ctx context.Context, sellerKey string) error {
	if err := s.rdb.Del(ctx, keyPrefix+sellerKey).Err(); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
