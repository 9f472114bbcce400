package cart

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSession is the session that maps to the plain DefaultKey slot.
	DefaultSession = "default"
	// DefaultRegistryCapacity is the number of stores a Registry keeps open.
	DefaultRegistryCapacity = 10000
)

// Registry hands out one Store per cart session. Stores are opened on first
// use and kept in a least recently used cache; an evicted session is read
// back from storage on its next use.
type Registry struct {
	storage Storage
	opts    []Option

	stores *lru.Cache
	opens  singleflight.Group
}

// NewRegistry creates a Registry with DefaultRegistryCapacity whose stores
// persist to storage. opts are applied to every store; the key is always
// derived from the session.
func NewRegistry(storage Storage, opts ...Option) *Registry {
	return NewRegistryWithCapacity(DefaultRegistryCapacity, storage, opts...)
}

// NewRegistryWithCapacity is NewRegistry keeping at most capacity stores
// open. A non-positive capacity means DefaultRegistryCapacity.
func NewRegistryWithCapacity(capacity int, storage Storage, opts ...Option) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	stores, err := lru.New(capacity)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Registry{
		storage: storage,
		opts:    opts,
		stores:  stores,
	}
}

// SessionKey returns the storage key of a session's cart.
func SessionKey(session string) string {
	if session == "" || session == DefaultSession {
		return DefaultKey
	}
	return DefaultKey + ":" + session
}

// Get returns the store for session, opening it if needed. Concurrent first
// uses of one session share a single Open; other sessions are not blocked.
// A store whose stored cart could not be read is returned but not kept, so
// the next Get reads storage again.
func (r *Registry) Get(ctx context.Context, session string) *Store {
	if session == "" {
		session = DefaultSession
	}
	if s, ok := r.stores.Get(session); ok {
		return s.(*Store)
	}

	v, _, _ := r.opens.Do(session, func() (any, error) {
		if s, ok := r.stores.Get(session); ok {
			return s, nil
		}
		opts := append(append([]Option{}, r.opts...), WithKey(SessionKey(session)))
		// The store outlives the request that opened it.
		s := Open(context.WithoutCancel(ctx), r.storage, opts...)
		if !s.loadFailed() {
			r.stores.Add(session, s)
		}
		return s, nil
	})
	return v.(*Store)
}

// Len returns the number of open stores.
func (r *Registry) Len() int {
	return r.stores.Len()
}
