package product

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// Product represents a catalog item available for purchase. Prices are whole
// rupees.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Image       string
	Category    string
	Subcategory string
	Featured    bool
	New         bool
	BestSeller  bool
	Colors      []string
	Sizes       []string
	InStock     bool
}

// HasColor reports whether any of the product colors is in selected.
func (p Product) HasColor(selected []string) bool {
	return intersects(p.Colors, selected)
}

// HasSize reports whether any of the product sizes is in selected.
func (p Product) HasSize(selected []string) bool {
	return intersects(p.Sizes, selected)
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Category groups products for browsing.
type Category struct {
	ID            string
	Name          string
	Image         string
	Subcategories []Subcategory
}

// Subcategory is a named subdivision of a Category.
type Subcategory struct {
	ID   string
	Name string
}

// Subcategory looks up a subcategory by id.
func (c Category) Subcategory(id string) (Subcategory, bool) {
	for _, s := range c.Subcategories {
		if s.ID == id {
			return s, true
		}
	}
	return Subcategory{}, false
}

// Source provides the full catalog. Implementations return products in their
// natural (insertion) order.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
}
