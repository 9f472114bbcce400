package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// Pricing constants in rupees.
var (
	FreeShippingAbove = decimal.NewFromInt(5000)
	ShippingFee       = decimal.NewFromInt(99)
	TaxRate           = decimal.RequireFromString("0.18")
)

// Quote is the order summary shown before payment.
type Quote struct {
	Subtotal          decimal.Decimal
	Shipping          decimal.Decimal
	Taxes             decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	CouponCode        string
	CouponDescription string
}

// Price computes the summary for a cart subtotal. Shipping is free for an
// empty cart and above FreeShippingAbove. Taxes are 18% GST on the subtotal,
// rounded to whole rupees. The total never goes below zero.
func Price(subtotal int64, empty bool, discount decimal.Decimal) Quote {
	sub := decimal.NewFromInt(subtotal)

	shipping := ShippingFee
	if empty || sub.GreaterThan(FreeShippingAbove) {
		shipping = decimal.Zero
	}
	taxes := sub.Mul(TaxRate).Round(0)
	discount = discount.Round(2)

	total := sub.Add(shipping).Add(taxes).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal: sub,
		Shipping: shipping,
		Taxes:    taxes,
		Discount: discount,
		Total:    total.Round(2),
	}
}

func couponItems(lines []cart.Line) []coupon.Item {
	items := make([]coupon.Item, len(lines))
	for i, l := range lines {
		items[i] = coupon.Item{
			ProductID: l.Product.ID,
			Price:     decimal.NewFromInt(l.Product.Price),
			Quantity:  l.Quantity,
		}
	}
	return items
}
