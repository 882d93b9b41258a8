// Package querycache stores encoded query responses in Redis.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "lcatricity:resp:"

// Cache is a TTL-bound response cache keyed by request path and query.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New connects to the Redis instance at redisURL and pings it.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	if redisURL == "" {
		return nil, errors.New("querycache: empty redis url")
	}
	if ttl <= 0 {
		return nil, errors.New("querycache: ttl must be positive")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("querycache: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("querycache: redis ping: %w", err)
	}
	return &Cache{client: client, ttl: ttl, prefix: defaultPrefix}, nil
}

// Get returns the cached body for key. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores body under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, body []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.prefix+key, body, c.ttl).Err()
}

// Flush deletes every cached response and returns the number of keys removed.
func (c *Cache) Flush(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	var removed int64
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := c.client.Del(ctx, batch...).Result()
			if err != nil {
				return removed, err
			}
			removed += n
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	if len(batch) > 0 {
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// Close releases the client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Key derives a stable cache key from a path and its query parameters.
// Parameter order does not matter.
func Key(path string, query url.Values) string {
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(path)
	for _, name := range names {
		values := append([]string(nil), query[name]...)
		sort.Strings(values)
		for _, v := range values {
			b.WriteByte('&')
			b.WriteString(url.QueryEscape(name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return strings.TrimPrefix(path, "/") + ":" + hex.EncodeToString(sum[:16])
}
