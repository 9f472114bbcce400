package catalog

import (
	"slices"
	"strings"
	"unicode"

	"github.com/bits-and-blooms/bloom/v3"
	"golang.org/x/text/cases"

	"github.com/xenking/storefront/internal/domain/product"
)

const searchFPR = 0.01

// searchEntry holds the folded tokens of one product. The bloom filter
// rejects most non-matching queries without touching the token list.
type searchEntry struct {
	filter *bloom.BloomFilter
	tokens []string
}

func (e searchEntry) has(token string) bool {
	if !e.filter.TestString(token) {
		return false
	}
	_, found := slices.BinarySearch(e.tokens, token)
	return found
}

func buildIndex(products []product.Product) []searchEntry {
	index := make([]searchEntry, len(products))
	for i, p := range products {
		tokens := tokenize(p.Name, p.Description, p.Category, p.Subcategory)
		slices.Sort(tokens)
		tokens = slices.Compact(tokens)

		filter := bloom.NewWithEstimates(uint(len(tokens)+1), searchFPR)
		for _, t := range tokens {
			filter.AddString(t)
		}
		index[i] = searchEntry{filter: filter, tokens: tokens}
	}
	return index
}

// tokenize splits text on anything that is not a letter or digit and case
// folds the pieces.
func tokenize(text ...string) []string {
	fold := cases.Fold()
	var tokens []string
	for _, s := range text {
		for _, f := range strings.FieldsFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			tokens = append(tokens, fold.String(f))
		}
	}
	return tokens
}

// Search returns products whose name, description, category or subcategory
// contain every word of query, ignoring case. A query without words matches
// nothing.
func (c *Catalog) Search(query string) []product.Product {
	words := tokenize(query)
	out := make([]product.Product, 0)
	if len(words) == 0 {
		return out
	}
next:
	for i, e := range c.index {
		for _, w := range words {
			if !e.has(w) {
				continue next
			}
		}
		out = append(out, c.products[i])
	}
	return out
}
