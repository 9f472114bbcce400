// Package catalog answers read-only queries over an immutable product
// snapshot: lookups, category listings, flag lists, free-text search and the
// category page filter/sort pipeline.
package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
)

// DefaultRelatedLimit is the number of related products shown on a product
// page.
const DefaultRelatedLimit = 4

// Catalog is a snapshot of products and categories. It is safe for concurrent
// use; nothing mutates it after New.
type Catalog struct {
	products   []product.Product
	categories []product.Category
	byID       map[string]int
	index      []searchEntry
}

// New captures products and categories. Order of products is the natural
// order used by every listing.
func New(products []product.Product, categories []product.Category) *Catalog {
	c := &Catalog{
		products:   slices.Clone(products),
		categories: slices.Clone(categories),
		byID:       make(map[string]int, len(products)),
	}
	for i, p := range c.products {
		if _, dup := c.byID[p.ID]; !dup {
			c.byID[p.ID] = i
		}
	}
	c.index = buildIndex(c.products)
	return c
}

// Load reads products and categories from src concurrently and builds a
// Catalog.
func Load(ctx context.Context, src product.Source) (*Catalog, error) {
	var (
		products   []product.Product
		categories []product.Category
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = src.Products(ctx); err != nil {
			return errors.Wrap(err, "load products")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = src.Categories(ctx); err != nil {
			return errors.Wrap(err, "load categories")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New(products, categories), nil
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// All returns every product in natural order.
func (c *Catalog) All() []product.Product {
	return slices.Clone(c.products)
}

// ByCategory returns products of categoryID. A non-empty subcategoryID
// narrows the result further.
func (c *Catalog) ByCategory(categoryID, subcategoryID string) []product.Product {
	return c.where(func(p product.Product) bool {
		if p.Category != categoryID {
			return false
		}
		return subcategoryID == "" || p.Subcategory == subcategoryID
	})
}

// ByID returns the product with id or product.ErrNotFound.
func (c *Catalog) ByID(id string) (product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return c.products[i], nil
}

// Featured returns products flagged as featured.
func (c *Catalog) Featured() []product.Product {
	return c.where(func(p product.Product) bool { return p.Featured })
}

// BestSellers returns products flagged as best sellers.
func (c *Catalog) BestSellers() []product.Product {
	return c.where(func(p product.Product) bool { return p.BestSeller })
}

// NewArrivals returns products flagged as new.
func (c *Catalog) NewArrivals() []product.Product {
	return c.where(func(p product.Product) bool { return p.New })
}

// Categories returns the category list.
func (c *Catalog) Categories() []product.Category {
	return slices.Clone(c.categories)
}

// Category returns the category with id or product.ErrCategoryNotFound.
func (c *Catalog) Category(id string) (product.Category, error) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return product.Category{}, product.ErrCategoryNotFound
}

// Related returns up to limit other products from the category of p. A
// non-positive limit means DefaultRelatedLimit.
func (c *Catalog) Related(p product.Product, limit int) []product.Product {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	out := make([]product.Product, 0, limit)
	for _, candidate := range c.products {
		if len(out) == limit {
			break
		}
		if candidate.Category == p.Category && candidate.ID != p.ID {
			out = append(out, candidate)
		}
	}
	return out
}

func (c *Catalog) where(keep Predicate) []product.Product {
	out := make([]product.Product, 0)
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
