package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache stored in Redis. Values go through a Codec, JSON by default.
// The client is owned by the caller; Close does not close it.
type Redis[V any] struct {
	client     redis.UniversalClient
	codec      Codec[V]
	prefix     string
	defaultTTL time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption[V any] func(*Redis[V])

// WithPrefix namespaces keys as "prefix:key".
func WithPrefix[V any](prefix string) RedisOption[V] {
	return func(r *Redis[V]) { r.prefix = prefix }
}

// WithCodec replaces the JSON codec.
func WithCodec[V any](c Codec[V]) RedisOption[V] {
	return func(r *Redis[V]) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithRedisTTL sets the TTL used when Set gets zero. Defaults to one hour.
func WithRedisTTL[V any](d time.Duration) RedisOption[V] {
	return func(r *Redis[V]) { r.defaultTTL = d }
}

// NewRedis creates a cache over client, typically from redis.Open.
func NewRedis[V any](client redis.UniversalClient, opts ...RedisOption[V]) *Redis[V] {
	r := &Redis[V]{
		client:     client,
		codec:      JSON[V]{},
		defaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Decode(data)
}

// Set stores value. A negative ttl keeps the key until it is deleted or evicted.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.defaultTTL
	}
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

var _ Cache[any] = (*Redis[any])(nil)
