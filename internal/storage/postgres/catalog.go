package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, description, price, image, category, subcategory,
		featured, is_new, best_seller, colors, sizes, in_stock
		FROM products ORDER BY position, id`

	listCategoriesSQL = `SELECT id, name, image FROM categories ORDER BY position, id`

	listSubcategoriesSQL = `SELECT category_id, id, name FROM subcategories ORDER BY category_id, position, id`

	upsertCategorySQL = `INSERT INTO categories (id, name, image, position) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, image = EXCLUDED.image, position = EXCLUDED.position`

	upsertSubcategorySQL = `INSERT INTO subcategories (category_id, id, name, position) VALUES ($1, $2, $3, $4)
		ON CONFLICT (category_id, id) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position`

	upsertProductSQL = `INSERT INTO products (id, name, description, price, image, category, subcategory,
		featured, is_new, best_seller, colors, sizes, in_stock, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			image = EXCLUDED.image,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			featured = EXCLUDED.featured,
			is_new = EXCLUDED.is_new,
			best_seller = EXCLUDED.best_seller,
			colors = EXCLUDED.colors,
			sizes = EXCLUDED.sizes,
			in_stock = EXCLUDED.in_stock,
			position = EXCLUDED.position`
)

var _ product.Source = (*ProductSource)(nil)

// ProductSource implements product.Source backed by PostgreSQL. Rows are
// returned in seeding order.
type ProductSource struct {
	pool *pgxpool.Pool
}

// NewProductSource returns a ProductSource that uses the given pool.
func NewProductSource(pool *pgxpool.Pool) *ProductSource {
	return &ProductSource{pool: pool}
}

// Products implements product.Source.
func (s *ProductSource) Products(ctx context.Context) ([]product.Product, error) {
	rows, err := s.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	return products, nil
}

// Categories implements product.Source.
func (s *ProductSource) Categories(ctx context.Context) ([]product.Category, error) {
	rows, err := s.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Category, error) {
		var c product.Category
		err := row.Scan(&c.ID, &c.Name, &c.Image)
		return c, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan categories")
	}

	rows, err = s.pool.Query(ctx, listSubcategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list subcategories")
	}
	type sub struct {
		categoryID string
		product.Subcategory
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sub, error) {
		var s sub
		err := row.Scan(&s.categoryID, &s.ID, &s.Name)
		return s, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan subcategories")
	}

	byID := make(map[string]int, len(categories))
	for i, c := range categories {
		byID[c.ID] = i
	}
	for _, s := range subs {
		if i, ok := byID[s.categoryID]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, s.Subcategory)
		}
	}
	return categories, nil
}

// SeedCatalog copies every category and product of src into the database in
// one transaction, preserving the source order.
func SeedCatalog(ctx context.Context, pool *pgxpool.Pool, src product.Source) error {
	categories, err := src.Categories(ctx)
	if err != nil {
		return errors.Wrap(err, "read categories")
	}
	products, err := src.Products(ctx)
	if err != nil {
		return errors.Wrap(err, "read products")
	}

	batch := &pgx.Batch{}
	for i, c := range categories {
		batch.Queue(upsertCategorySQL, c.ID, c.Name, c.Image, i)
		for j, s := range c.Subcategories {
			batch.Queue(upsertSubcategorySQL, c.ID, s.ID, s.Name, j)
		}
	}
	for i, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID, p.Name, p.Description, p.Price, p.Image, p.Category, p.Subcategory,
			p.Featured, p.New, p.BestSeller, nonNil(p.Colors), nonNil(p.Sizes), p.InStock, i,
		)
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Image, &p.Category, &p.Subcategory,
		&p.Featured, &p.New, &p.BestSeller, &p.Colors, &p.Sizes, &p.InStock,
	)
	return p, err
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
