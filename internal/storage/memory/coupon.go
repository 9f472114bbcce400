package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/coupon"
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository holds coupon rules keyed by normalized code.
type CouponRepository struct {
	mu    sync.RWMutex
	rules map[string]coupon.Rule
}

// NewCouponRepository returns a repository seeded with rules.
func NewCouponRepository(rules ...coupon.Rule) *CouponRepository {
	r := &CouponRepository{rules: make(map[string]coupon.Rule, len(rules))}
	for _, rule := range rules {
		r.Put(rule)
	}
	return r
}

// Put adds or replaces a rule.
func (r *CouponRepository) Put(rule coupon.Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[coupon.NormalizeCode(rule.Code)] = rule
}

// FindByCode implements coupon.Repository. The lookup is case-insensitive.
func (r *CouponRepository) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[coupon.NormalizeCode(code)]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &rule, nil
}
