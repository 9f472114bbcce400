package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Redeemer prices a promo code against cart items.
type Redeemer interface {
	Redeem(ctx context.Context, code string, items []Item) (*Discount, error)
}

// Service resolves promo codes typed in by shoppers.
type Service struct {
	repo Repository
	now  func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock sets the time used for validity windows.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service reading rules from repo.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Rule returns the rule of code if it is active now. Codes match
// case-insensitively; a blank or unknown code is ErrInvalidCoupon.
func (s *Service) Rule(ctx context.Context, code string) (*Rule, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	r, err := s.repo.FindByCode(ctx, code)
	switch {
	case errors.Is(err, ErrInvalidCoupon):
		return nil, ErrInvalidCoupon
	case err != nil:
		return nil, errors.Wrap(err, "find coupon")
	}
	if !r.ActiveAt(s.now()) {
		return nil, ErrCouponExpired
	}
	return r, nil
}

// Redeem prices code against items.
func (s *Service) Redeem(ctx context.Context, code string, items []Item) (*Discount, error) {
	r, err := s.Rule(ctx, code)
	if err != nil {
		return nil, err
	}
	d, err := Apply(r, items)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
