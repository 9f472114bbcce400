package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes the cheapest unit in the cart free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

var (
	// ErrInvalidCoupon is returned when a code is unknown or the cart does
	// not meet the rule's minimum item count.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned outside the rule's validity window.
	ErrCouponExpired = errors.New("coupon expired")
)

// Rule defines a coupon's discount behaviour and eligibility constraints.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	// MaxDiscount caps the computed amount when positive.
	MaxDiscount decimal.Decimal
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// ActiveAt reports whether t falls inside the rule's validity window.
func (r *Rule) ActiveAt(t time.Time) bool {
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	return r.ValidUntil == nil || !t.After(*r.ValidUntil)
}

// Discount holds the computed discount amount and a human-readable description.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Item is a cart line reduced to what discount calculation needs.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Repository provides lookup of coupon rules by code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// NormalizeCode returns the canonical (upper-case, trimmed) form of a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Welcome10 is the storefront's sign-up offer: 10% off the whole order.
func Welcome10() Rule {
	return Rule{
		Code:         "WELCOME10",
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		Description:  "10% off your order",
	}
}
