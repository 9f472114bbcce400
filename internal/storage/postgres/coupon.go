package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, value, min_items, max_discount, description,
		valid_from, valid_until
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_type, value, min_items, max_discount, description,
		valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_items = EXCLUDED.min_items,
			max_discount = EXCLUDED.max_discount,
			description = EXCLUDED.description,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			active = TRUE`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanCouponRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return &rule, nil
}

// Upsert inserts rules, replacing existing ones with the same code, in one
// batch.
func (r *CouponRepository) Upsert(ctx context.Context, rules ...coupon.Rule) error {
	batch := &pgx.Batch{}
	for _, rule := range rules {
		batch.Queue(upsertCouponSQL,
			coupon.NormalizeCode(rule.Code), string(rule.DiscountType), rule.Value, rule.MinItems,
			rule.MaxDiscount, rule.Description, rule.ValidFrom, rule.ValidUntil,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "upsert coupons")
	}
	return nil
}

func scanCouponRule(row pgx.CollectableRow) (coupon.Rule, error) {
	var (
		rule         coupon.Rule
		discountType string
		value        decimal.Decimal
		minItems     int32
		maxDiscount  decimal.Decimal
		validFrom    *time.Time
		validUntil   *time.Time
	)
	err := row.Scan(
		&rule.Code, &discountType, &value, &minItems, &maxDiscount, &rule.Description,
		&validFrom, &validUntil,
	)
	rule.DiscountType = coupon.DiscountType(discountType)
	rule.Value = value
	rule.MinItems = int(minItems)
	rule.MaxDiscount = maxDiscount
	rule.ValidFrom = validFrom
	rule.ValidUntil = validUntil
	return rule, err
}
