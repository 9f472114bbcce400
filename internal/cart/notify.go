package cart

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// NotificationKind tells apart the user-visible outcomes of a mutation.
type NotificationKind string

const (
	NotifyAdded   NotificationKind = "added"
	NotifyUpdated NotificationKind = "updated"
	NotifyRemoved NotificationKind = "removed"
	NotifyCleared NotificationKind = "cleared"
)

// Notification is the toast-style feedback emitted by cart mutations.
type Notification struct {
	Kind    NotificationKind
	Message string
}

// Notifier receives cart notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier returns a Notifier logging at info level.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, note Notification) {
	n.lg.Info(note.Message, zap.String("kind", string(note.Kind)))
}

type collectorKey struct{}

type collector struct {
	mu    sync.Mutex
	notes []Notification
}

// CollectNotifications returns a context that records the notifications of
// mutations made with it, and a func returning them in emission order.
func CollectNotifications(ctx context.Context) (context.Context, func() []Notification) {
	c := &collector{}
	return context.WithValue(ctx, collectorKey{}, c), func() []Notification {
		c.mu.Lock()
		defer c.mu.Unlock()
		return slices.Clone(c.notes)
	}
}

func collect(ctx context.Context, n Notification) {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok {
		return
	}
	c.mu.Lock()
	c.notes = append(c.notes, n)
	c.mu.Unlock()
}

func notificationFor(kind NotificationKind) Notification {
	var msg string
	switch kind {
	case NotifyAdded:
		msg = "Added to cart"
	case NotifyUpdated:
		msg = "Updated quantity in cart"
	case NotifyRemoved:
		msg = "Removed from cart"
	case NotifyCleared:
		msg = "Cart cleared"
	}
	return Notification{Kind: kind, Message: msg}
}
