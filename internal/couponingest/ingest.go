// Package couponingest extracts valid promo codes from gzip-compressed code
// dumps. A code is valid when it appears in at least MinFiles of the dumps.
//
// Dumps are streamed twice. The first pass builds one bloom filter per file,
// the second pass tests every code of a file against the other files'
// filters and records candidate codes with a bitmask of the files they were
// seen in. Only candidates are kept in memory.
package couponingest

import (
	"bufio"
	"context"
	"math/bits"
	"os"
	"slices"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune the scan.
type Options struct {
	// Capacity is the expected number of codes per file.
	Capacity uint
	// FalsePositiveRate of each bloom filter.
	FalsePositiveRate float64
	// MinLen and MaxLen bound accepted code lengths, inclusive.
	MinLen, MaxLen int
	// MinFiles is how many files a code must appear in.
	MinFiles int
	// ProgressEvery logs progress after that many codes per file. Zero
	// disables progress logs.
	ProgressEvery uint64
	Logger        *zap.Logger
}

// DefaultOptions fit dumps of a few hundred million codes.
func DefaultOptions() Options {
	return Options{
		Capacity:          120_000_000,
		FalsePositiveRate: 0.001,
		MinLen:            8,
		MaxLen:            10,
		MinFiles:          2,
		ProgressEvery:     10_000_000,
		Logger:            zap.NewNop(),
	}
}

func (o Options) accepts(code string) bool {
	return len(code) >= o.MinLen && len(code) <= o.MaxLen
}

// Codes returns the sorted codes found in at least opts.MinFiles of paths.
func Codes(ctx context.Context, paths []string, opts Options) ([]string, error) {
	if len(paths) > bits.UintSize {
		return nil, errors.Errorf("at most %d files supported, got %d", bits.UintSize, len(paths))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MinFiles < 1 {
		opts.MinFiles = 1
	}

	filters, err := buildFilters(ctx, paths, opts)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	masks, err := findCandidates(ctx, paths, filters, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find candidates")
	}

	merged := make(map[string]uint)
	for _, m := range masks {
		for code, mask := range m {
			merged[code] |= mask
		}
	}

	valid := make([]string, 0, len(merged))
	for code, mask := range merged {
		if bits.OnesCount(mask) >= opts.MinFiles {
			valid = append(valid, code)
		}
	}
	slices.Sort(valid)

	opts.Logger.Info("Coupon codes extracted",
		zap.Int("files", len(paths)),
		zap.Int("candidates", len(merged)),
		zap.Int("valid", len(valid)),
	)
	return valid, nil
}

func buildFilters(ctx context.Context, paths []string, opts Options) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(opts.Capacity, opts.FalsePositiveRate)
			n, err := scan(ctx, path, opts, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			opts.Logger.Debug("Bloom filter built", zap.String("file", path), zap.Uint64("codes", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findCandidates returns, per file, the codes that probably appear in
// another file. With a single file every code is a candidate.
func findCandidates(ctx context.Context, paths []string, filters []*bloom.BloomFilter, opts Options) ([]map[string]uint, error) {
	results := make([]map[string]uint, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			candidates := make(map[string]uint)
			bit := uint(1) << uint(i)
			n, err := scan(ctx, path, opts, func(code string) {
				if len(filters) == 1 || seenElsewhere(code, i, filters) {
					candidates[code] |= bit
				}
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			opts.Logger.Debug("Candidates collected",
				zap.String("file", path),
				zap.Uint64("codes", n),
				zap.Int("candidates", len(candidates)),
			)
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func seenElsewhere(code string, self int, filters []*bloom.BloomFilter) bool {
	for j, f := range filters {
		if j != self && f.TestString(code) {
			return true
		}
	}
	return false
}

// scan streams the accepted codes of a gzip file, one per line.
func scan(ctx context.Context, path string, opts Options, fn func(code string)) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var n uint64
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		code := sc.Text()
		if !opts.accepts(code) {
			continue
		}
		fn(code)
		n++
		if opts.ProgressEvery > 0 && n%opts.ProgressEvery == 0 {
			opts.Logger.Info("Scan progress", zap.String("file", path), zap.Uint64("codes", n))
		}
	}
	if err := sc.Err(); err != nil {
		return n, errors.Wrapf(err, "scan %s", path)
	}
	return n, nil
}
