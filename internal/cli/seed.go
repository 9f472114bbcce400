package cli

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/couponingest"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/storage/postgres"
)

// upsertBatch is how many coupons go into one pgx batch.
const upsertBatch = 5000

func (c *cli) seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Migrate PostgreSQL and load the catalog and built-in coupons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := c.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			var src *catalog.StaticSource
			if file != "" {
				src, err = catalog.ReadFile(file)
			} else {
				src, err = catalog.ParseSeed(db.SeedCatalog)
			}
			if err != nil {
				return errors.Wrap(err, "read catalog")
			}
			if err := postgres.SeedCatalog(ctx, pool, src); err != nil {
				return err
			}
			if err := postgres.NewCouponRepository(pool).Upsert(ctx, coupon.Welcome10()); err != nil {
				return errors.Wrap(err, "upsert coupons")
			}

			products, _ := src.Products(ctx)
			categories, _ := src.Categories(ctx)
			c.printf("Seeded %d categories and %d products\n", len(categories), len(products))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Catalog JSON document, gzip allowed (default embedded catalog)")
	return cmd
}

func (c *cli) couponsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupons",
		Short: "Manage promo codes",
	}
	cmd.AddCommand(c.couponsIngestCommand(), c.couponsCheckCommand())
	return cmd
}

func (c *cli) couponsIngestCommand() *cobra.Command {
	opts := couponingest.DefaultOptions()
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "ingest FILE.gz...",
		Short: "Load promo codes that appear in several gzip code dumps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts.Logger = c.lg.Named("ingest")

			codes, err := couponingest.Codes(ctx, args, opts)
			if err != nil {
				return errors.Wrap(err, "extract codes")
			}
			rules := couponingest.Rules(codes)
			if dryRun {
				for _, r := range rules {
					c.printf("%s\t%s\n", r.Code, r.Description)
				}
				c.printf("%d valid codes\n", len(rules))
				return nil
			}

			pool, err := c.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.NewCouponRepository(pool)
			for chunk := range slices.Chunk(rules, upsertBatch) {
				if err := repo.Upsert(ctx, chunk...); err != nil {
					return errors.Wrap(err, "upsert coupons")
				}
			}
			c.lg.Info("Coupons ingested", zap.Int("count", len(rules)))
			c.printf("Ingested %d coupons\n", len(rules))
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.MinFiles, "min-files", opts.MinFiles, "Files a code must appear in")
	f.UintVar(&opts.Capacity, "capacity", opts.Capacity, "Expected codes per file, sizes the bloom filters")
	f.Float64Var(&opts.FalsePositiveRate, "fp-rate", opts.FalsePositiveRate, "Bloom filter false positive rate")
	f.IntVar(&opts.MinLen, "min-len", opts.MinLen, "Shortest accepted code")
	f.IntVar(&opts.MaxLen, "max-len", opts.MaxLen, "Longest accepted code")
	f.BoolVar(&dryRun, "dry-run", false, "Print the codes instead of storing them")
	return cmd
}

func (c *cli) couponsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check CODE",
		Short: "Look up a promo code in the configured coupon store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, done, err := c.backends(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			r, err := coupon.NewService(b.Coupons).Rule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printf("%s\t%s\t%s\n", r.Code, r.DiscountType, r.Description)
			return nil
		},
	}
}

func (c *cli) pool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
	}
	pool, err := postgres.NewPool(ctx, c.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
