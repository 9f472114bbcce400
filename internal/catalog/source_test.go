package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/db"
)

const sampleSeed = `{
	"categories": [
		{"id": "women", "name": "Women", "subcategories": [{"id": "dresses", "name": "Dresses"}]}
	],
	"products": [
		{"id": "w1", "name": "Dress", "price": 2499, "category": "women", "subcategory": "dresses",
		 "featured": true, "colors": ["Red"], "sizes": ["S"], "inStock": true},
		{"id": "w2", "name": "Top", "price": 899, "category": "women", "new": true}
	]
}`

func TestParseSeed(t *testing.T) {
	src, err := ParseSeed([]byte(sampleSeed))
	require.NoError(t, err)

	c, err := Load(context.Background(), src)
	require.NoError(t, err)

	p, err := c.ByID("w1")
	require.NoError(t, err)
	assert.Equal(t, int64(2499), p.Price)
	assert.True(t, p.Featured)
	assert.Equal(t, []string{"Red"}, p.Colors)
	assert.True(t, p.InStock)

	women, err := c.Category("women")
	require.NoError(t, err)
	require.Len(t, women.Subcategories, 1)
	assert.Equal(t, "dresses", women.Subcategories[0].ID)
	assert.Equal(t, []string{"w2"}, ids(c.NewArrivals()))
}

func TestParseSeed_Errors(t *testing.T) {
	_, err := ParseSeed([]byte(`{"products": [`))
	require.Error(t, err)

	_, err = ParseSeed([]byte(`{"products": [{"name": "anonymous"}]}`))
	require.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(plain, []byte(sampleSeed), 0o600))

	compressed := filepath.Join(dir, "catalog.json.gz")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleSeed))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, compressed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := ReadFile(path)
			require.NoError(t, err)

			products, err := src.Products(context.Background())
			require.NoError(t, err)
			assert.Len(t, products, 2)
		})
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestEmbeddedSeed(t *testing.T) {
	src, err := ParseSeed(db.SeedCatalog)
	require.NoError(t, err)

	c, err := Load(context.Background(), src)
	require.NoError(t, err)
	require.NotZero(t, c.Len())

	categories := make(map[string]bool)
	for _, cat := range c.Categories() {
		categories[cat.ID] = true
	}
	seen := make(map[string]bool)
	for _, p := range c.All() {
		assert.False(t, seen[p.ID], "duplicate product %s", p.ID)
		seen[p.ID] = true
		assert.True(t, categories[p.Category], "product %s has unknown category %s", p.ID, p.Category)
		assert.Positive(t, p.Price, p.ID)
	}

	assert.NotEmpty(t, c.Featured())
	assert.NotEmpty(t, c.BestSellers())
	assert.NotEmpty(t, c.NewArrivals())
}
