package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

const (
	keyPrefix = "listing:"
	// invalidatedMarker replaces an entry for invalidationHold after a write
	// so a reader that loaded the row before that write cannot store it.
	invalidatedMarker = "-"
	invalidationHold  = 5 * time.Second
)

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ListingCache keeps single listings in Redis as JSON.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(ctx context.Context, opts Options) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return NewListingCacheFromClient(client, opts.TTL), nil
}

func NewListingCacheFromClient(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ListingCache{client: client, ttl: ttl}
}

// GetListing returns nil, nil on a cache miss.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if string(data) == invalidatedMarker {
		return nil, nil
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("decode cached listing %s: %w", id, err)
	}
	return &listing, nil
}

// SetListing stores listing unless the key holds an entry already, including
// the marker left by a recent DeleteListing.
func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, keyPrefix+listing.ID, data, c.ttl).Err()
}

// DeleteListing invalidates the cached entry of id.
func (c *ListingCache) DeleteListing(ctx context.Context, id string) error {
	return c.client.Set(ctx, keyPrefix+id, invalidatedMarker, invalidationHold).Err()
}

func (c *ListingCache) Close() error {
	return c.client.Close()
}
