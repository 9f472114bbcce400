package catalog

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xenking/storefront/internal/domain/product"
)

// SortKey selects the ordering of a filtered listing.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// ParseSortKey maps s to a SortKey. Unknown values fall back to SortFeatured.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return k
	default:
		return SortFeatured
	}
}

// Default category page price bounds, inclusive.
const (
	DefaultMinPrice int64 = 0
	DefaultMaxPrice int64 = 60000
)

// Filter is the category page selection: an inclusive price range, optional
// colour and size sets, and a sort key.
type Filter struct {
	MinPrice int64
	MaxPrice int64
	Colors   []string
	Sizes    []string
	Sort     SortKey
}

// DefaultFilter returns the filter a category page starts with.
func DefaultFilter() Filter {
	return Filter{
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
		Sort:     SortFeatured,
	}
}

// Predicate decides whether a product stays in a listing.
type Predicate func(p product.Product) bool

// Comparator orders two products like cmp.Compare.
type Comparator func(a, b product.Product) int

// PriceBetween keeps products with min <= price <= max.
func PriceBetween(minPrice, maxPrice int64) Predicate {
	return func(p product.Product) bool {
		return p.Price >= minPrice && p.Price <= maxPrice
	}
}

// AnyColor keeps products offering at least one of colors.
func AnyColor(colors []string) Predicate {
	return func(p product.Product) bool { return p.HasColor(colors) }
}

// AnySize keeps products offering at least one of sizes.
func AnySize(sizes []string) Predicate {
	return func(p product.Product) bool { return p.HasSize(sizes) }
}

// Predicates returns the predicates implied by f. Empty colour and size sets
// do not filter.
func (f Filter) Predicates() []Predicate {
	preds := []Predicate{PriceBetween(f.MinPrice, f.MaxPrice)}
	if len(f.Colors) > 0 {
		preds = append(preds, AnyColor(f.Colors))
	}
	if len(f.Sizes) > 0 {
		preds = append(preds, AnySize(f.Sizes))
	}
	return preds
}

// ComparatorFor returns the ordering for key. Name orderings hold their own
// collator, so the result must not be shared between goroutines.
func ComparatorFor(key SortKey) Comparator {
	switch key {
	case SortPriceAsc:
		return func(a, b product.Product) int { return cmp.Compare(a.Price, b.Price) }
	case SortPriceDesc:
		return func(a, b product.Product) int { return cmp.Compare(b.Price, a.Price) }
	case SortNameAsc:
		c := newCollator()
		return func(a, b product.Product) int { return c.CompareString(a.Name, b.Name) }
	case SortNameDesc:
		c := newCollator()
		return func(a, b product.Product) int { return c.CompareString(b.Name, a.Name) }
	default:
		return byFeatured
	}
}

func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// byFeatured puts featured products first, then best sellers, then new ones.
func byFeatured(a, b product.Product) int {
	if r := flagFirst(a.Featured, b.Featured); r != 0 {
		return r
	}
	if r := flagFirst(a.BestSeller, b.BestSeller); r != 0 {
		return r
	}
	return flagFirst(a.New, b.New)
}

func flagFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// Apply filters products by f and sorts the survivors stably by f.Sort. The
// input slice is left untouched. Apply is idempotent.
func Apply(products []product.Product, f Filter) []product.Product {
	preds := f.Predicates()
	out := make([]product.Product, 0, len(products))
next:
	for _, p := range products {
		for _, keep := range preds {
			if !keep(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, ComparatorFor(f.Sort))
	return out
}
