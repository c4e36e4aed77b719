package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

const redisKeyPrefix = "luxe"

// RedisOptions configures the Redis store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is a Store shared by every storefront instance. Entries are keyed by the per-kind
// generation counter, so invalidated entries stop being addressed and age out via TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &Redis{client: client, ttl: opts.TTL}, nil
}

func (r *Redis) Get(ctx context.Context, kind domain.RecordKind, key string) ([]byte, bool, error) {
	gen, err := r.generation(ctx, kind)
	if err != nil {
		return nil, false, err
	}
	value, err := r.client.Get(ctx, entryKey(kind, gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (r *Redis) Generation(ctx context.Context, kind domain.RecordKind) (int64, error) {
	return r.generation(ctx, kind)
}

// Set writes value under gen. Values fetched before a later invalidation are dropped, and
// a write racing an invalidation lands under a generation readers no longer address.
func (r *Redis) Set(ctx context.Context, kind domain.RecordKind, gen int64, key string, value []byte) error {
	current, err := r.generation(ctx, kind)
	if err != nil {
		return err
	}
	if current != gen {
		return nil
	}
	if err := r.client.Set(ctx, entryKey(kind, gen, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, kind domain.RecordKind) error {
	if err := r.client.Incr(ctx, generationKey(kind)).Err(); err != nil {
		return fmt.Errorf("redis invalidate %s: %w", kind, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) generation(ctx context.Context, kind domain.RecordKind) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis generation %s: %w", kind, err)
	}
	return gen, nil
}

func generationKey(kind domain.RecordKind) string {
	return redisKeyPrefix + ":gen:" + string(kind)
}

func entryKey(kind domain.RecordKind, gen int64, key string) string {
	return redisKeyPrefix + ":" + string(kind) + ":" + strconv.FormatInt(gen, 10) + ":" + key
}
