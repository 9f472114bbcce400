package couponingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/storefront/internal/domain/coupon"
)

func writeDump(t *testing.T, dir, name string, codes ...string) string {
	t.Helper()
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

func testOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.Capacity = 1000
	opts.ProgressEvery = 2
	opts.Logger = zaptest.NewLogger(t)
	return opts
}

func TestCodes(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeDump(t, dir, "a.gz", "FESTIVE20", "ONLYINAAA", "SHARED0001", "short", "WAYTOOLONGCODE"),
		writeDump(t, dir, "b.gz", "SHARED0001", "ONLYINBBB", "BUYGETONE"),
		writeDump(t, dir, "c.gz", "FESTIVE20", "BUYGETONE", "SHARED0001", "short"),
	}

	codes, err := Codes(context.Background(), paths, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"BUYGETONE", "FESTIVE20", "SHARED0001"}, codes)
}

func TestCodes_MinFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeDump(t, dir, "a.gz", "ALLTHREE1", "TWOOFTHEM"),
		writeDump(t, dir, "b.gz", "ALLTHREE1", "TWOOFTHEM"),
		writeDump(t, dir, "c.gz", "ALLTHREE1"),
	}
	opts := testOptions(t)
	opts.MinFiles = 3

	codes, err := Codes(context.Background(), paths, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALLTHREE1"}, codes)
}

func TestCodes_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDump(t, dir, "a.gz", "CODEONE01", "CODETWO02")
	opts := testOptions(t)
	opts.MinFiles = 1

	codes, err := Codes(context.Background(), []string{path}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"CODEONE01", "CODETWO02"}, codes)
}

func TestCodes_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Codes(context.Background(), []string{filepath.Join(dir, "missing.gz")}, testOptions(t))
	require.Error(t, err)

	plain := filepath.Join(dir, "plain.gz")
	require.NoError(t, os.WriteFile(plain, []byte("NOTGZIPPED\n"), 0o600))
	_, err = Codes(context.Background(), []string{plain}, testOptions(t))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeDump(t, dir, "a.gz", "CODEONE01")
	_, err = Codes(ctx, []string{path, path}, testOptions(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRules(t *testing.T) {
	rules := Rules([]string{"festive20", "SOMECODE1", "BUYGETONE"})
	require.Len(t, rules, 3)

	assert.Equal(t, "FESTIVE20", rules[0].Code)
	assert.Equal(t, coupon.DiscountPercentage, rules[0].DiscountType)
	assert.Equal(t, "20", rules[0].Value.String())

	assert.Equal(t, "SOMECODE1", rules[1].Code)
	assert.Equal(t, defaultRule.Description, rules[1].Description)

	assert.Equal(t, coupon.DiscountFreeLowest, rules[2].DiscountType)
	assert.Equal(t, 2, rules[2].MinItems)
}
