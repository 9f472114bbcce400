// Package cart holds the shopping cart: an ordered list of lines with
// derived count/total aggregates, persisted to a key-value Storage after
// every change.
//
// Remove and UpdateQuantity address lines by product id only, so they act on
// every size/color variant of that product at once. Add merges by the full
// (product id, size, color) triple. This asymmetry is a known limitation that
// callers rely on; variant-level removal is not supported.
package cart

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
)

// Store is the single source of truth for one cart.
//
// Each mutation runs as mutate, recompute, persist, publish. Mutations are
// serialized; the line slice is replaced on every change so snapshots handed
// out earlier are never modified.
type Store struct {
	storage  Storage
	key      string
	lg       *zap.Logger
	notifier Notifier
	metrics  *Metrics

	mu      sync.Mutex
	loadErr error
	lines   []Line
	count int
	total int64

	subsMu  sync.Mutex
	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key (DefaultKey).
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithNotifier sets the receiver of user-facing notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithMetrics enables mutation metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Open loads the cart persisted in storage and returns a ready Store. A
// missing, unreadable or corrupt value yields an empty cart; the problem is
// logged and never returned. Only a corrupt value is written back, replaced
// with an empty list. After a read failure the stored value is left alone
// and the load is retried before the first mutation.
func Open(ctx context.Context, storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		lg:      zap.NewNop(),
		subs:    make(map[uint64]func(Snapshot)),
	}
	for _, o := range opts {
		o(s)
	}

	lines, corrupt, err := s.load(ctx)

	s.mu.Lock()
	s.loadErr = err
	if corrupt {
		s.commitLocked(ctx, lines)
	} else {
		s.installLocked(lines)
	}
	s.mu.Unlock()

	return s
}

// load reads the stored lines. err is set only when storage could not be
// read; a missing value is an empty cart.
func (s *Store) load(ctx context.Context) (lines []Line, corrupt bool, err error) {
	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNoValue) {
			return nil, false, nil
		}
		s.lg.Error("Load cart", zap.String("key", s.key), zap.Error(err))
		return nil, false, err
	}
	lines, err = Decode(data)
	if err != nil {
		s.lg.Error("Parse stored cart", zap.String("key", s.key), zap.Error(err))
		return nil, true, nil
	}
	return lines, false, nil
}

// reloadLocked retries a failed load so a mutation is applied on top of the
// stored cart instead of replacing it. Must be called with s.mu held.
func (s *Store) reloadLocked(ctx context.Context) {
	if s.loadErr == nil {
		return
	}
	lines, _, err := s.load(ctx)
	if err != nil {
		s.loadErr = err
		return
	}
	s.loadErr = nil
	s.installLocked(lines)
}

// loadFailed reports whether the stored cart is still unread.
func (s *Store) loadFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr != nil
}

// Add puts quantity units of p with the given options into the cart. A line
// with the same (product id, size, color) has its quantity increased;
// otherwise a new line is appended. quantity is not validated.
func (s *Store) Add(ctx context.Context, p product.Product, quantity int, size, color string) {
	s.mu.Lock()
	s.reloadLocked(ctx)
	next := slices.Clone(s.lines)
	kind := NotifyAdded
	if i := slices.IndexFunc(next, func(l Line) bool { return l.matches(p.ID, size, color) }); i >= 0 {
		l := next[i]
		l.Quantity += quantity
		next[i] = l
		kind = NotifyUpdated
	} else {
		next = append(next, Line{Product: p, Quantity: quantity, Size: size, Color: color})
	}
	snap := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.publish(ctx, "add", snap)
	s.notify(ctx, notificationFor(kind))
}

// Remove drops every line of productID, whatever its size and color. Removing
// an absent product is a no-op but still notifies.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	s.reloadLocked(ctx)
	next := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		if l.Product.ID != productID {
			next = append(next, l)
		}
	}
	snap := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.publish(ctx, "remove", snap)
	s.notify(ctx, notificationFor(NotifyRemoved))
}

// UpdateQuantity sets quantity on every line of productID. Callers must pass
// quantity >= 1; the store does not clamp.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	s.reloadLocked(ctx)
	next := make([]Line, len(s.lines))
	for i, l := range s.lines {
		if l.Product.ID == productID {
			l.Quantity = quantity
		}
		next[i] = l
	}
	snap := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.publish(ctx, "update", snap)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.reloadLocked(ctx)
	snap := s.commitLocked(ctx, nil)
	s.mu.Unlock()

	s.publish(ctx, "clear", snap)
	s.notify(ctx, notificationFor(NotifyCleared))
}

// Consume takes the given lines out of the cart, as after a purchase of a
// snapshot of it. Each matching line loses the consumed quantity and is
// dropped when nothing is left; lines added since the snapshot stay. Emits
// "Cart cleared" when the cart ends up empty.
func (s *Store) Consume(ctx context.Context, consumed []Line) {
	s.mu.Lock()
	s.reloadLocked(ctx)
	next := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		i := slices.IndexFunc(consumed, func(c Line) bool { return l.matches(c.Product.ID, c.Size, c.Color) })
		if i >= 0 {
			l.Quantity -= consumed[i].Quantity
			if l.Quantity <= 0 {
				continue
			}
		}
		next = append(next, l)
	}
	snap := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.publish(ctx, "consume", snap)
	if len(snap.Lines) == 0 {
		s.notify(ctx, notificationFor(NotifyCleared))
	}
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Count returns the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Total returns the sum of price * quantity over all lines.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Snapshot returns lines and aggregates taken together.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every mutation. fn runs
// on the mutating goroutine after the store lock is released. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// commitLocked installs next, recomputes the aggregates and persists. Must be
// called with s.mu held.
func (s *Store) commitLocked(ctx context.Context, next []Line) Snapshot {
	s.installLocked(next)
	if err := s.storage.Save(ctx, s.key, Encode(s.lines)); err != nil {
		s.lg.Error("Save cart", zap.String("key", s.key), zap.Error(err))
	}
	return s.snapshotLocked()
}

func (s *Store) installLocked(next []Line) {
	if next == nil {
		next = []Line{}
	}
	s.lines = next
	s.count, s.total = summarize(next)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines: slices.Clone(s.lines),
		Count: s.count,
		Total: s.total,
	}
}

func (s *Store) publish(ctx context.Context, op string, snap Snapshot) {
	s.metrics.record(ctx, op, snap.Count)

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// notify delivers n without letting a failing notifier affect the caller.
func (s *Store) notify(ctx context.Context, n Notification) {
	collect(ctx, n)
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.lg.Warn("Notifier panicked", zap.Any("panic", r), zap.String("kind", string(n.Kind)))
		}
	}()
	s.notifier.Notify(ctx, n)
}
