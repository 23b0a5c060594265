// Package redisstore provides a Redis-backed partition backend for shared
// triage sessions. Each partition is stored as a single JSON string value,
// preserving the whole-collection replace semantics of the file backend.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/os-threat/triage/store"
)

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// KeyPrefix namespaces every key. Defaults to "triage".
	KeyPrefix string

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
}

// Backend implements store.Backend on Redis string values.
type Backend struct {
	client *redis.Client
	prefix string
}

// New creates a Redis backend from the given options and verifies the
// connection with a ping.
func New(opts Options) (*Backend, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "triage"
	}
	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redisstore: invalid redis URL: %w", err)
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: ping failed: %w", err)
	}
	return &Backend{client: client, prefix: opts.KeyPrefix}, nil
}

// NewFromClient wraps an existing client, mainly for tests.
func NewFromClient(client *redis.Client, keyPrefix string) *Backend {
	if keyPrefix == "" {
		keyPrefix = "triage"
	}
	return &Backend{client: client, prefix: keyPrefix}
}

// Close closes the underlying connection.
func (b *Backend) Close() error { return b.client.Close() }

// ReadPartition implements store.Backend.
func (b *Backend) ReadPartition(ctx context.Context, scope store.Scope, file string) ([]byte, error) {
	return b.get(ctx, b.partitionKey(scope, file))
}

// WritePartition implements store.Backend.
func (b *Backend) WritePartition(ctx context.Context, scope store.Scope, file string, data []byte) error {
	return b.set(ctx, b.partitionKey(scope, file), data)
}

// ReadDirectory implements store.Backend.
func (b *Backend) ReadDirectory(ctx context.Context) ([]byte, error) {
	return b.get(ctx, b.prefix+":context_map")
}

// WriteDirectory implements store.Backend.
func (b *Backend) WriteDirectory(ctx context.Context, data []byte) error {
	return b.set(ctx, b.prefix+":context_map", data)
}

func (b *Backend) partitionKey(scope store.Scope, file string) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, scope.Dir(), file)
}

func (b *Backend) get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get %s: %v", store.ErrStorageFailed, key, err)
	}
	return data, nil
}

func (b *Backend) set(ctx context.Context, key string, data []byte) error {
	if err := b.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", store.ErrStorageFailed, key, err)
	}
	return nil
}
