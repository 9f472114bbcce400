package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/storefront/internal/domain/product"
)

// run executes one CLI invocation with carts kept in a SQLite file under dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "sqlite")
	t.Setenv("STOREFRONT_STORAGE_SQLITE_PATH", filepath.Join(dir, "carts.db"))
	t.Setenv("STOREFRONT_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	c := &cli{out: &out, lg: zaptest.NewLogger(t)}
	cmd := c.root()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCatalogCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "catalog", "list", "--category", "women", "--subcategory", "dresses", "--sort", "price-asc")
	require.NoError(t, err)
	assert.Contains(t, out, "w-001")
	assert.Contains(t, out, "₹2,499")
	assert.NotContains(t, out, "m-")

	_, err = run(t, dir, "catalog", "list", "--category", "kids")
	require.ErrorIs(t, err, product.ErrCategoryNotFound)

	out, err = run(t, dir, "catalog", "search", "wrap", "dress")
	require.NoError(t, err)
	assert.Contains(t, out, "Floral Wrap Dress")

	out, err = run(t, dir, "catalog", "show", "w-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Floral Wrap Dress  ₹2,499")
	assert.Contains(t, out, "You may also like")

	_, err = run(t, dir, "catalog", "show", "nope")
	require.ErrorIs(t, err, product.ErrNotFound)

	out, err = run(t, dir, "catalog", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "accessories")
	assert.Contains(t, out, "  dresses")
}

func TestCartCommands_Persist(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty")

	_, err = run(t, dir, "cart", "add", "w-001", "-q", "2", "--size", "M", "--color", "Red")
	require.NoError(t, err)

	out, err = run(t, dir, "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "M/Red")
	assert.Contains(t, out, "2 items, total ₹4,998")

	out, err = run(t, dir, "quote", "--coupon", "welcome10")
	require.NoError(t, err)
	assert.Contains(t, out, "₹4998.00")
	assert.Contains(t, out, "Discount (WELCOME10)")
	assert.Contains(t, out, "₹5497.20")

	out, err = run(t, dir, "cart", "show", "--session", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty")

	out, err = run(t, dir, "cart", "update", "w-001", "-q", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 items, total ₹2,499")

	out, err = run(t, dir, "cart", "remove", "w-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty")
}

func TestCartAdd_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "zero quantity", args: []string{"cart", "add", "w-001", "-q", "0"}, want: "quantity must be at least 1"},
		{name: "unknown size", args: []string{"cart", "add", "w-001", "--size", "XXL"}, want: `size "XXL" is not offered`},
		{name: "unknown colour", args: []string{"cart", "add", "w-001", "--color", "Mauve"}, want: `colour "Mauve" is not offered`},
		{name: "unknown product", args: []string{"cart", "add", "nope"}, want: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, tt.args...)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestQuote_InvalidCoupon(t *testing.T) {
	_, err := run(t, t.TempDir(), "quote", "--coupon", "BOGUS")
	require.Error(t, err)
}

func TestCouponsCheck(t *testing.T) {
	out, err := run(t, t.TempDir(), "coupons", "check", "welcome10")
	require.NoError(t, err)
	assert.Contains(t, out, "WELCOME10\tpercentage")
}

func TestCouponsIngest_DryRun(t *testing.T) {
	dir := t.TempDir()
	dump := func(name string, codes ...string) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		gz := pgzip.NewWriter(f)
		_, err = gz.Write([]byte(strings.Join(codes, "\n") + "\n"))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, f.Close())
		return path
	}
	a := dump("couponbase1.gz", "FESTIVE20", "LONELY001")
	b := dump("couponbase2.gz", "FESTIVE20", "SHARED002")
	c := dump("couponbase3.gz", "SHARED002")

	out, err := run(t, dir, "coupons", "ingest", "--dry-run", "--capacity", "100", a, b, c)
	require.NoError(t, err)
	assert.Contains(t, out, "FESTIVE20\tFestive offer: 20% off")
	assert.Contains(t, out, "SHARED002\tPromo code: 10% off")
	assert.NotContains(t, out, "LONELY001")
	assert.Contains(t, out, "2 valid codes")
}

func TestSeed_RequiresDatabase(t *testing.T) {
	_, err := run(t, t.TempDir(), "seed")
	require.ErrorContains(t, err, "database URL is required")
}
