// Package memory provides in-process storage for carts, coupons and orders.
// Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/storefront/internal/cart"
)

var _ cart.Storage = (*KV)(nil)

// KV is a cart.Storage backed by a map.
type KV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKV returns an empty KV.
func NewKV() *KV {
	return &KV{data: make(map[string][]byte)}
}

// Load implements cart.Storage.
func (s *KV) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, cart.ErrNoValue
	}
	return slices.Clone(v), nil
}

// Save implements cart.Storage.
func (s *KV) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = slices.Clone(data)
	return nil
}

// Ping always succeeds.
func (s *KV) Ping(context.Context) error { return nil }
