package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/cart"
)

const (
	loadCartSQL = `SELECT data FROM cart_slots WHERE key = $1`

	saveCartSQL = `INSERT INTO cart_slots (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

var _ cart.Storage = (*CartStorage)(nil)

// CartStorage is a cart.Storage over the cart_slots table.
type CartStorage struct {
	pool *pgxpool.Pool
}

// NewCartStorage returns a CartStorage that uses the given pool.
func NewCartStorage(pool *pgxpool.Pool) *CartStorage {
	return &CartStorage{pool: pool}
}

// Load implements cart.Storage.
func (s *CartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, loadCartSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoValue
		}
		return nil, errors.Wrapf(err, "load cart %q", key)
	}
	return data, nil
}

// Save implements cart.Storage.
func (s *CartStorage) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, saveCartSQL, key, data); err != nil {
		return errors.Wrapf(err, "save cart %q", key)
	}
	return nil
}

// Ping checks the database connection.
func (s *CartStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
