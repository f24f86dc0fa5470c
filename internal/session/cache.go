// Package session caches resolved access-token identities in Redis so that
// every request does not hit the OAuth2 introspection endpoint.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Identity is the resolved owner of an access token.
type Identity struct {
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	VisitorType string    `json:"visitor_type"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Cache stores identities keyed by a hash of the access token. Tokens are
// never written to Redis in the clear.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCache(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewCacheWithClient(client, ttl), nil
}

func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		client: client,
		prefix: "introspect:",
		ttl:    ttl,
	}
}

func (c *Cache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached identity for a token. The second return value is
// false on a cache miss.
func (c *Cache) Get(ctx context.Context, token string) (Identity, bool, error) {
	raw, err := c.client.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("read cached identity: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return Identity{}, false, fmt.Errorf("decode cached identity: %w", err)
	}
	return identity, true, nil
}

// Put caches an identity for the configured TTL.
func (c *Cache) Put(ctx context.Context, token string, identity Identity) error {
	if identity.ResolvedAt.IsZero() {
		identity.ResolvedAt = time.Now()
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := c.client.Set(ctx, c.key(token), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache identity: %w", err)
	}
	return nil
}

// Invalidate drops the cached identity for a token.
func (c *Cache) Invalidate(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, c.key(token)).Err(); err != nil {
		return fmt.Errorf("drop cached identity: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
