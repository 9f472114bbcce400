package catalog

import (
	"github.com/xenking/storefront/internal/domain/product"
)

// Facets summarizes what a listing offers for filtering.
type Facets struct {
	Colors   []string
	Sizes    []string
	MinPrice int64
	MaxPrice int64
}

// CollectFacets returns the distinct colours and sizes of products in
// first-seen order, and their price bounds. Empty input yields zero bounds.
func CollectFacets(products []product.Product) Facets {
	f := Facets{
		Colors: []string{},
		Sizes:  []string{},
	}
	seenColor := make(map[string]struct{})
	seenSize := make(map[string]struct{})

	for i, p := range products {
		if i == 0 || p.Price < f.MinPrice {
			f.MinPrice = p.Price
		}
		if i == 0 || p.Price > f.MaxPrice {
			f.MaxPrice = p.Price
		}
		for _, c := range p.Colors {
			if _, ok := seenColor[c]; !ok {
				seenColor[c] = struct{}{}
				f.Colors = append(f.Colors, c)
			}
		}
		for _, s := range p.Sizes {
			if _, ok := seenSize[s]; !ok {
				seenSize[s] = struct{}{}
				f.Sizes = append(f.Sizes, s)
			}
		}
	}
	return f
}
