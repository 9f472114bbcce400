// Package checkout turns a cart into an order: it prices the cart, validates
// the shipping and payment forms, simulates payment and takes the purchased
// lines out of the cart.
package checkout

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
)

// ErrEmptyCart is returned when an order is placed for an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// DefaultProcessingDelay mimics the payment gateway round trip.
const DefaultProcessingDelay = 2 * time.Second

// StatusPaid is the status of every confirmed order.
const StatusPaid = "Paid"

// Cart is the part of a cart store checkout needs.
type Cart interface {
	Snapshot() cart.Snapshot
	Consume(ctx context.Context, lines []cart.Line)
}

// PlaceOrderRequest holds the checkout forms.
type PlaceOrderRequest struct {
	Session    string
	Shipping   ShippingDetails
	Payment    Payment
	CouponCode string
}

// Confirmation is returned for a paid order.
type Confirmation struct {
	OrderNumber string
	Status      string
	PlacedAt    time.Time
	Quote       Quote
	Items       []order.Item
}

// Service prices carts and places orders.
type Service struct {
	coupons  coupon.Redeemer
	orders   order.Repository
	forms    *FormValidator
	tracer   trace.Tracer
	delay    time.Duration
	now      func() time.Time
	orderSeq func() int
}

// Option configures a Service.
type Option func(*Service)

// WithOrders records placed orders in repo.
func WithOrders(repo order.Repository) Option {
	return func(s *Service) { s.orders = repo }
}

// WithProcessingDelay overrides DefaultProcessingDelay.
func WithProcessingDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// WithTracerProvider enables tracing of checkout operations.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("storefront/checkout") }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a checkout Service validating coupons with coupons.
func NewService(coupons coupon.Redeemer, opts ...Option) *Service {
	s := &Service{
		coupons:  coupons,
		forms:    NewFormValidator(),
		tracer:   noop.NewTracerProvider().Tracer(""),
		delay:    DefaultProcessingDelay,
		now:      time.Now,
		orderSeq: func() int { return 100000 + rand.IntN(900000) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Forms returns the validator used for checkout forms.
func (s *Service) Forms() *FormValidator { return s.forms }

// Quote prices snap, applying couponCode when it is not blank. An unknown
// code yields coupon.ErrInvalidCoupon.
func (s *Service) Quote(ctx context.Context, snap cart.Snapshot, couponCode string) (Quote, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Quote")
	defer span.End()

	discount := decimal.Zero
	var applied *coupon.Discount
	if coupon.NormalizeCode(couponCode) != "" {
		d, err := s.coupons.Redeem(ctx, couponCode, couponItems(snap.Lines))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Quote{}, errors.Wrap(err, "validate coupon")
		}
		applied = d
		discount = d.Amount
	}

	q := Price(snap.Total, len(snap.Lines) == 0, discount)
	if applied != nil {
		q.CouponCode = applied.Code
		q.CouponDescription = applied.Description
	}
	span.SetAttributes(
		attribute.Int("cart.count", snap.Count),
		attribute.String("quote.total", q.Total.String()),
	)
	return q, nil
}

// PlaceOrder validates the forms, prices a snapshot of the cart, waits for
// the simulated payment and consumes the snapshotted lines. Lines added to
// the cart while the payment is processed are not part of the order and stay
// in the cart. The cart is left untouched on any failure.
func (s *Service) PlaceOrder(ctx context.Context, c Cart, req PlaceOrderRequest) (*Confirmation, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder",
		trace.WithAttributes(attribute.String("payment.method", string(req.Payment.Method))),
	)
	defer span.End()

	fail := func(err error) (*Confirmation, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.forms.Order(req.Shipping, req.Payment); err != nil {
		return fail(err)
	}

	snap := c.Snapshot()
	if len(snap.Lines) == 0 {
		return fail(ErrEmptyCart)
	}

	q, err := s.Quote(ctx, snap, req.CouponCode)
	if err != nil {
		return fail(err)
	}

	if err := s.processPayment(ctx); err != nil {
		return fail(errors.Wrap(err, "process payment"))
	}

	o := &order.Order{
		Number:        "IW" + strconv.Itoa(s.orderSeq()),
		Session:       req.Session,
		Items:         orderItems(snap.Lines),
		Subtotal:      q.Subtotal,
		Shipping:      q.Shipping,
		Taxes:         q.Taxes,
		Discount:      q.Discount,
		Total:         q.Total,
		CouponCode:    q.CouponCode,
		PaymentMethod: string(req.Payment.Method),
		ShipTo:        order.Recipient(req.Shipping),
		CreatedAt:     s.now(),
	}
	if s.orders != nil {
		if err := s.orders.Create(ctx, o); err != nil {
			return fail(errors.Wrap(err, "create order"))
		}
	}

	c.Consume(ctx, snap.Lines)

	span.SetAttributes(attribute.String("order.number", o.Number))
	zctx.From(ctx).Info("Order placed",
		zap.String("number", o.Number),
		zap.String("total", o.Total.String()),
		zap.Int("items", snap.Count),
	)

	return &Confirmation{
		OrderNumber: o.Number,
		Status:      StatusPaid,
		PlacedAt:    o.CreatedAt,
		Quote:       q,
		Items:       o.Items,
	}, nil
}

func (s *Service) processPayment(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func orderItems(lines []cart.Line) []order.Item {
	items := make([]order.Item, len(lines))
	for i, l := range lines {
		items[i] = order.Item{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
		}
	}
	return items
}
