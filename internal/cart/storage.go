package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// DefaultKey is the slot the cart is persisted under.
const DefaultKey = "cart"

// ErrNoValue is returned by Storage.Load when nothing is stored under a key.
var ErrNoValue = errors.New("no value stored")

// Storage is a durable key-value slot holding the serialized cart.
type Storage interface {
	// Load returns the stored bytes or ErrNoValue.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the stored bytes.
	Save(ctx context.Context, key string, data []byte) error
}
