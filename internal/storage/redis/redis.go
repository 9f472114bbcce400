// Package redis keeps carts in Redis, one string value per cart key.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront/internal/cart"
)

// DefaultPrefix namespaces cart keys.
const DefaultPrefix = "storefront:"

var _ cart.Storage = (*Storage)(nil)

// Storage is a cart.Storage backed by Redis.
type Storage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a Storage.
type Option func(*Storage)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Storage) { s.prefix = prefix }
}

// WithTTL expires carts that are not written for ttl. Zero keeps them
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Storage) { s.ttl = ttl }
}

// New wraps client.
func New(client redis.UniversalClient, opts ...Option) *Storage {
	s := &Storage{client: client, prefix: DefaultPrefix}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dial connects to the Redis server at addr.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Storage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}
	return New(client, opts...), nil
}

// Load implements cart.Storage.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrNoValue
		}
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return data, nil
}

// Save implements cart.Storage.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

// Ping checks the connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Storage) Close() error {
	return s.client.Close()
}
