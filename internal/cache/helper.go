package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sharefit/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// AddJSON stores v under key only when the key is absent and reports
// whether it was written.
func AddJSON(ctx context.Context, key string, v any, ttl time.Duration) (bool, error) {
	if client == nil {
		return false, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return client.SetNX(ctx, key, b, ttl).Result()
}

// Publish overwrites key with v. When the write fails the key is dropped so
// an older copy is not served.
func Publish(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := SetJSON(ctx, key, v, ttl); err != nil {
		Invalidate(ctx, key)
	}
}

// Aside serves dest from Redis when present; otherwise fetch fills dest and
// the result is stored best-effort. The fill never replaces a copy a writer
// published while fetch ran. Cache errors never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}
	if found, err := GetJSON(ctx, key, dest); err == nil && found {
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	_, _ = AddJSON(ctx, key, dest, ttl)
	return nil
}
