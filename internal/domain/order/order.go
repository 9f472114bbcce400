package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no order has the requested number.
var ErrNotFound = errors.New("order not found")

// Order is a placed order: what was bought, what it cost and where it goes.
type Order struct {
	Number        string
	Session       string
	Items         []Item
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Taxes         decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	CouponCode    string
	PaymentMethod string
	ShipTo        Recipient
	CreatedAt     time.Time
}

// Item is a single purchased line. Price is the unit price at purchase time.
type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Recipient is the shipping destination of an order.
type Recipient struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	ByNumber(ctx context.Context, number string) (*Order, error)
}
