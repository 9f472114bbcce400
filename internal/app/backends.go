package app

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/internal/storage/redis"
	"github.com/xenking/storefront/internal/storage/sqlite"
	"github.com/xenking/storefront/pkg/health"
)

// Backends are the storage dependencies selected by Config.
type Backends struct {
	Carts   cart.Storage
	Coupons coupon.Repository
	Orders  order.Repository
	Catalog product.Source

	// Pingers are the dependencies readiness depends on, by name.
	Pingers map[string]health.Pinger

	closers []func() error
}

// OpenBackends connects to everything cfg refers to. When DatabaseURL is set,
// coupons and orders live in PostgreSQL, otherwise in memory.
func OpenBackends(ctx context.Context, lg *zap.Logger, cfg *Config) (_ *Backends, rerr error) {
	b := &Backends{Pingers: make(map[string]health.Pinger)}
	defer func() {
		if rerr != nil {
			_ = b.Close()
		}
	}()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		pool = p
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		b.Pingers["postgres"] = pool

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, err
		}

		coupons := postgres.NewCouponRepository(pool)
		if err := coupons.Upsert(ctx, coupon.Welcome10()); err != nil {
			return nil, errors.Wrap(err, "register built-in coupons")
		}
		b.Coupons = coupons
		b.Orders = postgres.NewOrderRepository(pool)
	} else {
		b.Coupons = memory.NewCouponRepository(coupon.Welcome10())
		b.Orders = memory.NewOrderRepository()
	}

	carts, err := b.openCarts(ctx, lg, cfg, pool)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s cart storage", cfg.Storage.Backend)
	}
	b.Carts = carts
	if p, ok := carts.(health.Pinger); ok && cfg.Storage.Backend != BackendPostgres {
		b.Pingers["cart-storage"] = p
	}

	src, err := openCatalog(ctx, cfg, pool)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s catalog", cfg.Catalog.Source)
	}
	b.Catalog = src

	lg.Info("Backends ready",
		zap.String("cart_storage", cfg.Storage.Backend),
		zap.String("catalog", cfg.Catalog.Source),
		zap.Bool("postgres", pool != nil),
	)
	return b, nil
}

func (b *Backends) openCarts(ctx context.Context, lg *zap.Logger, cfg *Config, pool *pgxpool.Pool) (cart.Storage, error) {
	switch cfg.Storage.Backend {
	case BackendSQLite:
		s, err := sqlite.Open(cfg.Storage.SQLitePath, lg.Named("sqlite"))
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		return s, nil
	case BackendRedis:
		rc := cfg.Storage.Redis
		s, err := redis.Dial(ctx, rc.Addr, rc.Password, rc.DB, redis.WithTTL(rc.TTL))
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		return s, nil
	case BackendPostgres:
		if pool == nil {
			return nil, errors.New("database URL is not set")
		}
		return postgres.NewCartStorage(pool), nil
	default:
		return memory.NewKV(), nil
	}
}

func openCatalog(ctx context.Context, cfg *Config, pool *pgxpool.Pool) (product.Source, error) {
	if cfg.Catalog.Seed {
		if pool == nil {
			return nil, errors.New("database URL is not set")
		}
		seed, err := catalog.ParseSeed(db.SeedCatalog)
		if err != nil {
			return nil, errors.Wrap(err, "parse embedded catalog")
		}
		if err := postgres.SeedCatalog(ctx, pool, seed); err != nil {
			return nil, err
		}
	}

	switch cfg.Catalog.Source {
	case CatalogFile:
		return catalog.ReadFile(cfg.Catalog.File)
	case CatalogPostgres:
		if pool == nil {
			return nil, errors.New("database URL is not set")
		}
		return postgres.NewProductSource(pool), nil
	default:
		return catalog.ParseSeed(db.SeedCatalog)
	}
}

// Close releases the backends in reverse order of opening.
func (b *Backends) Close() error {
	var err error
	for _, c := range slices.Backward(b.closers) {
		err = multierr.Append(err, c())
	}
	b.closers = nil
	return err
}
