package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (number, session, items, subtotal, shipping, taxes, discount, total,
		coupon, payment, shipping_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getOrderSQL = `SELECT number, session, items, subtotal, shipping, taxes, discount, total,
		coupon, payment, shipping_to, created_at
		FROM orders WHERE number = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Items and the recipient are stored as JSONB.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	shipToJSON, err := json.Marshal(o.ShipTo)
	if err != nil {
		return errors.Wrap(err, "marshal recipient")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.Number, o.Session, itemsJSON, o.Subtotal, o.Shipping, o.Taxes, o.Discount, o.Total,
		o.CouponCode, o.PaymentMethod, shipToJSON, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.Number)
	}
	return nil
}

// ByNumber returns the order with number or order.ErrNotFound.
func (r *OrderRepository) ByNumber(ctx context.Context, number string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, number)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", number)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", number)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		itemsJSON  []byte
		shipToJSON []byte
	)
	if err := row.Scan(
		&o.Number, &o.Session, &itemsJSON, &o.Subtotal, &o.Shipping, &o.Taxes, &o.Discount, &o.Total,
		&o.CouponCode, &o.PaymentMethod, &shipToJSON, &o.CreatedAt,
	); err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, errors.Wrap(err, "unmarshal order items")
	}
	if err := json.Unmarshal(shipToJSON, &o.ShipTo); err != nil {
		return o, errors.Wrap(err, "unmarshal recipient")
	}
	return o, nil
}
