package cart

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Test doubles ---

type mapStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
	// loadCtxCheck makes Load fail on a cancelled context like a network
	// backend would.
	loadCtxCheck bool
}

func newMapStorage() *mapStorage {
	return &mapStorage{data: make(map[string][]byte)}
}

func (m *mapStorage) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.loadCtxCheck {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoValue
	}
	return v, nil
}

func (m *mapStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

type recordingNotifier struct {
	notes []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) kinds() []NotificationKind {
	out := make([]NotificationKind, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Kind
	}
	return out
}

// --- Helpers ---

func testProduct(id string, price int64) product.Product {
	return product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    price,
		Category: "women",
		Colors:   []string{"Red", "Blue"},
		Sizes:    []string{"S", "M", "L"},
		InStock:  true,
	}
}

func openStore(t *testing.T, storage Storage, opts ...Option) *Store {
	t.Helper()
	return Open(context.Background(), storage, opts...)
}

// --- Tests ---

func TestStore_AddMergesSameTriple(t *testing.T) {
	ctx := context.Background()
	a := testProduct("a", 1499)
	s := openStore(t, newMapStorage())

	s.Add(ctx, a, 2, "", "")
	s.Add(ctx, a, 1, "", "")

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, int64(3*1499), s.Total())
}

func TestStore_AddDistinctVariants(t *testing.T) {
	ctx := context.Background()
	a := testProduct("a", 999)
	s := openStore(t, newMapStorage())

	s.Add(ctx, a, 1, "M", "Red")
	s.Add(ctx, a, 1, "L", "Red")

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "M", lines[0].Size)
	assert.Equal(t, "L", lines[1].Size)
	assert.Equal(t, 2, s.Count())
}

func TestStore_RemoveDropsAllVariants(t *testing.T) {
	ctx := context.Background()
	a := testProduct("a", 500)
	b := testProduct("b", 700)
	s := openStore(t, newMapStorage())

	s.Add(ctx, a, 1, "M", "Red")
	s.Add(ctx, b, 2, "", "")
	s.Add(ctx, a, 3, "L", "Blue")

	s.Remove(ctx, "a")

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "b", lines[0].Product.ID)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, int64(1400), s.Total())
}

func TestStore_UpdateQuantitySetsEveryVariant(t *testing.T) {
	ctx := context.Background()
	a := testProduct("a", 100)
	s := openStore(t, newMapStorage())

	s.Add(ctx, a, 1, "M", "Red")
	s.Add(ctx, a, 4, "L", "Red")
	s.UpdateQuantity(ctx, "a", 2)

	for _, l := range s.Lines() {
		assert.Equal(t, 2, l.Quantity)
	}
	assert.Equal(t, 4, s.Count())
	assert.Equal(t, int64(400), s.Total())
}

func TestStore_UpdateQuantityDoesNotClamp(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())
	s.Add(ctx, testProduct("a", 100), 3, "", "")

	s.UpdateQuantity(ctx, "a", 0)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 0, lines[0].Quantity)
	assert.Equal(t, 0, s.Count())
}

func TestStore_UnknownProductIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())
	s.Add(ctx, testProduct("a", 100), 1, "", "")

	s.UpdateQuantity(ctx, "missing", 5)
	s.Remove(ctx, "missing")

	assert.Equal(t, 1, s.Count())
	assert.Len(t, s.Lines(), 1)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())
	s.Add(ctx, testProduct("a", 100), 1, "", "")
	s.Add(ctx, testProduct("b", 200), 1, "", "")

	s.Clear(ctx)

	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Count())
	assert.Zero(t, s.Total())
}

func TestStore_Notifications(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	s := openStore(t, newMapStorage(), WithNotifier(n))
	a := testProduct("a", 100)

	s.Add(ctx, a, 1, "", "")
	s.Add(ctx, a, 1, "", "")
	s.UpdateQuantity(ctx, "a", 5)
	s.Remove(ctx, "missing")
	s.Clear(ctx)

	assert.Equal(t, []NotificationKind{NotifyAdded, NotifyUpdated, NotifyRemoved, NotifyCleared}, n.kinds())
	assert.Equal(t, "Added to cart", n.notes[0].Message)
	assert.Equal(t, "Updated quantity in cart", n.notes[1].Message)
}

func TestStore_PanickingNotifierIsIgnored(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage(), WithNotifier(NotifierFunc(func(context.Context, Notification) {
		panic("toast failed")
	})))

	require.NotPanics(t, func() {
		s.Add(ctx, testProduct("a", 100), 2, "", "")
	})
	assert.Equal(t, 2, s.Count())
}

func TestCollectNotifications(t *testing.T) {
	s := openStore(t, newMapStorage())
	a := testProduct("a", 100)

	ctx, notes := CollectNotifications(context.Background())
	s.Add(ctx, a, 1, "", "")
	s.Add(ctx, a, 1, "", "")
	s.UpdateQuantity(ctx, "a", 5)
	s.Add(context.Background(), testProduct("b", 50), 1, "", "")
	s.Clear(ctx)

	var kinds []NotificationKind
	for _, n := range notes() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []NotificationKind{NotifyAdded, NotifyUpdated, NotifyCleared}, kinds)
}

func TestStore_PersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	s := openStore(t, storage)

	a := testProduct("a", 1299)
	a.Featured = true
	a.Subcategory = "dresses"
	b := testProduct("b", 2499)
	b.Colors, b.Sizes = nil, nil

	s.Add(ctx, a, 2, "M", "Red")
	s.Add(ctx, b, 1, "", "")
	s.Add(ctx, a, 1, "S", "")

	reloaded := openStore(t, storage)
	assert.Equal(t, s.Lines(), reloaded.Lines())
	assert.Equal(t, s.Count(), reloaded.Count())
	assert.Equal(t, s.Total(), reloaded.Total())
}

func TestStore_CorruptStorageStartsEmpty(t *testing.T) {
	storage := newMapStorage()
	storage.data[DefaultKey] = []byte(`{not json`)

	core, logs := observer.New(zap.ErrorLevel)
	s := openStore(t, storage, WithLogger(zap.New(core)))

	assert.Empty(t, s.Lines())
	assert.Zero(t, s.Count())
	assert.Equal(t, 1, logs.FilterMessage("Parse stored cart").Len())
	assert.Equal(t, "[]", string(storage.data[DefaultKey]))
}

func TestStore_LoadErrorStartsEmpty(t *testing.T) {
	storage := newMapStorage()
	saved := Encode([]Line{{Product: testProduct("a", 100), Quantity: 3}})
	storage.data[DefaultKey] = saved
	storage.loadErr = errors.New("connection reset")

	core, logs := observer.New(zap.ErrorLevel)
	s := openStore(t, storage, WithLogger(zap.New(core)))

	assert.Empty(t, s.Lines())
	assert.Equal(t, 1, logs.FilterMessage("Load cart").Len())
	assert.Zero(t, storage.saves)
	assert.Equal(t, saved, storage.data[DefaultKey])
	assert.True(t, s.loadFailed())
}

func TestStore_LoadErrorThenReopenRestoresLines(t *testing.T) {
	storage := newMapStorage()
	before := openStore(t, storage)
	before.Add(context.Background(), testProduct("a", 100), 3, "M", "Red")

	storage.loadErr = errors.New("connection reset")
	openStore(t, storage)
	storage.loadErr = nil

	reopened := openStore(t, storage)
	assert.Equal(t, before.Lines(), reopened.Lines())
	assert.Equal(t, 3, reopened.Count())
}

func TestStore_MutationAfterLoadErrorRetriesLoad(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	openStore(t, storage).Add(ctx, testProduct("a", 100), 3, "", "")

	storage.loadErr = errors.New("connection reset")
	s := openStore(t, storage)
	require.Empty(t, s.Lines())
	storage.loadErr = nil

	s.Add(ctx, testProduct("b", 50), 1, "", "")

	assert.False(t, s.loadFailed())
	assert.Equal(t, 4, s.Count())
	assert.Equal(t, int64(350), s.Total())

	reopened := openStore(t, storage)
	assert.Equal(t, s.Lines(), reopened.Lines())
}

func TestStore_OpenMissingValueDoesNotWrite(t *testing.T) {
	storage := newMapStorage()
	s := openStore(t, storage)

	assert.Empty(t, s.Lines())
	assert.Zero(t, storage.saves)
	assert.NotContains(t, storage.data, DefaultKey)
}

func TestStore_Consume(t *testing.T) {
	a := testProduct("a", 100)
	b := testProduct("b", 50)

	tests := []struct {
		name     string
		consumed []Line
		want     []Line
	}{
		{
			name:     "everything",
			consumed: []Line{{Product: a, Quantity: 2, Size: "M"}, {Product: b, Quantity: 1}},
			want:     []Line{},
		},
		{
			name:     "keeps lines added later",
			consumed: []Line{{Product: a, Quantity: 2, Size: "M"}},
			want:     []Line{{Product: b, Quantity: 1}},
		},
		{
			name:     "keeps quantity added later",
			consumed: []Line{{Product: a, Quantity: 1, Size: "M"}, {Product: b, Quantity: 1}},
			want:     []Line{{Product: a, Quantity: 1, Size: "M"}},
		},
		{
			name:     "other variant untouched",
			consumed: []Line{{Product: a, Quantity: 2, Size: "L"}},
			want:     []Line{{Product: a, Quantity: 2, Size: "M"}, {Product: b, Quantity: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			n := &recordingNotifier{}
			storage := newMapStorage()
			s := openStore(t, storage, WithNotifier(n))
			s.Add(ctx, a, 2, "M", "")
			s.Add(ctx, b, 1, "", "")
			n.notes = nil

			s.Consume(ctx, tt.consumed)

			assert.Equal(t, tt.want, s.Lines())
			count, total := summarize(tt.want)
			assert.Equal(t, count, s.Count())
			assert.Equal(t, total, s.Total())
			assert.Equal(t, tt.want, openStore(t, storage).Lines())
			if len(tt.want) == 0 {
				assert.Equal(t, []NotificationKind{NotifyCleared}, n.kinds())
			} else {
				assert.Empty(t, n.notes)
			}
		})
	}
}

func TestStore_SaveErrorDoesNotAffectState(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	core, logs := observer.New(zap.ErrorLevel)
	s := openStore(t, storage, WithLogger(zap.New(core)))
	storage.saveErr = errors.New("quota exceeded")

	s.Add(ctx, testProduct("a", 100), 2, "", "")

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1, logs.FilterMessage("Save cart").Len())
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	s := openStore(t, storage)
	before := storage.saves

	s.Add(ctx, testProduct("a", 100), 1, "", "")
	s.UpdateQuantity(ctx, "a", 3)
	s.Remove(ctx, "a")
	s.Clear(ctx)

	assert.Equal(t, before+4, storage.saves)
}

func TestStore_SnapshotsAreNotMutated(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())
	a := testProduct("a", 100)
	s.Add(ctx, a, 1, "", "")

	before := s.Snapshot()
	s.Add(ctx, a, 4, "", "")

	assert.Equal(t, 1, before.Lines[0].Quantity)
	assert.Equal(t, 1, before.Count)
	assert.Equal(t, 5, s.Snapshot().Lines[0].Quantity)
}

func TestStore_SubscribePublishesOncePerMutation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
	})

	s.Add(ctx, testProduct("a", 100), 2, "", "")
	s.UpdateQuantity(ctx, "a", 3)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, int64(300), got[1].Total)

	unsubscribe()
	s.Clear(ctx)
	assert.Len(t, got, 2)
}

func TestStore_SubscriberMayReadStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())

	var seen int
	s.Subscribe(func(Snapshot) { seen = s.Count() })
	s.Add(ctx, testProduct("a", 100), 7, "", "")

	assert.Equal(t, 7, seen)
}

func TestStore_RandomSequencesKeepInvariants(t *testing.T) {
	ctx := context.Background()
	products := []product.Product{
		testProduct("a", 100),
		testProduct("b", 250),
		testProduct("c", 999),
	}
	sizes := []string{"", "S", "M"}
	colors := []string{"", "Red"}

	for seed := range uint64(50) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		storage := newMapStorage()
		s := openStore(t, storage)

		for range 60 {
			p := products[rng.IntN(len(products))]
			switch rng.IntN(10) {
			case 0:
				s.Clear(ctx)
			case 1, 2:
				s.Remove(ctx, p.ID)
			case 3, 4:
				s.UpdateQuantity(ctx, p.ID, 1+rng.IntN(5))
			default:
				s.Add(ctx, p, 1+rng.IntN(4), sizes[rng.IntN(len(sizes))], colors[rng.IntN(len(colors))])
			}

			snap := s.Snapshot()
			wantCount, wantTotal := 0, int64(0)
			seen := make(map[[3]string]bool)
			for _, l := range snap.Lines {
				wantCount += l.Quantity
				wantTotal += l.Product.Price * int64(l.Quantity)

				key := [3]string{l.Product.ID, l.Size, l.Color}
				require.False(t, seen[key], "seed %d: duplicate line %v", seed, key)
				seen[key] = true
			}
			require.Equal(t, wantCount, snap.Count, "seed %d", seed)
			require.Equal(t, wantTotal, snap.Total, "seed %d", seed)
		}

		reloaded := openStore(t, storage)
		require.Equal(t, s.Lines(), reloaded.Lines(), "seed %d", seed)
	}
}

func TestStore_MergeSumsAllQuantities(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newMapStorage())
	a := testProduct("a", 10)

	quantities := []int{3, 1, 4, 1, 5, 9, 2, 6}
	sum := 0
	for _, q := range quantities {
		s.Add(ctx, a, q, "M", "Red")
		sum += q
	}

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, sum, lines[0].Quantity)
}
