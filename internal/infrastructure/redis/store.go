// Package redis provides a Redis-backed storage.Store, for deployments that
// share client state between hosts.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/storage"
)

const (
	defaultAddr      = "localhost:6379"
	defaultKeyPrefix = "healthmon:"
	pingTimeout      = 5 * time.Second
	scanBatch        = 100
)

// Config configures the Redis store.
type Config struct {
	// Addr is the Redis server address (default: "localhost:6379").
	Addr string

	// Password for authentication.
	Password string

	// DB is the database number.
	DB int

	// KeyPrefix is prepended to all keys (default: "healthmon:").
	KeyPrefix string

	// Client allows providing a pre-configured Redis client.
	Client redis.UniversalClient
}

// Store implements storage.Store on Redis strings.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

// New creates a store. It does not contact the server; call Ping for that.
func New(cfg Config) *Store {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}

	client := cfg.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}
	return &Store{client: client, keyPrefix: cfg.KeyPrefix}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// HealthCheck is Ping under the name the health endpoint expects.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.Ping(ctx)
}

// Close releases the client's connections.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.keyPrefix + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("deleting keys: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
