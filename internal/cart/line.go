package cart

import (
	"github.com/xenking/storefront/internal/domain/product"
)

// Line is one entry in the cart. An empty Size or Color means the option was
// not chosen.
type Line struct {
	Product  product.Product
	Quantity int
	Size     string
	Color    string
}

// Subtotal returns price * quantity for the line.
func (l Line) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// matches reports whether l has the identity triple (productID, size, color).
func (l Line) matches(productID, size, color string) bool {
	return l.Product.ID == productID && l.Size == size && l.Color == color
}

// Snapshot is an immutable view of the cart: the lines and the aggregates
// derived from them at the same instant.
type Snapshot struct {
	Lines []Line
	Count int
	Total int64
}

// summarize derives the aggregates from lines. It is always a full
// recomputation.
func summarize(lines []Line) (count int, total int64) {
	for _, l := range lines {
		count += l.Quantity
		total += l.Subtotal()
	}
	return count, total
}
