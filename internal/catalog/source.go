package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/storefront/internal/domain/product"
)

type seedJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

type categoryJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	Subcategories []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"subcategories"`
}

type productJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Featured    bool     `json:"featured"`
	New         bool     `json:"new"`
	BestSeller  bool     `json:"bestSeller"`
	Colors      []string `json:"colors"`
	Sizes       []string `json:"sizes"`
	InStock     bool     `json:"inStock"`
}

// StaticSource serves a catalog parsed from a JSON document.
type StaticSource struct {
	products   []product.Product
	categories []product.Category
}

var _ product.Source = (*StaticSource)(nil)

// ParseSeed parses a catalog document of the form
// {"categories": [...], "products": [...]}.
func ParseSeed(data []byte) (*StaticSource, error) {
	return decodeSeed(bytes.NewReader(data))
}

// ReadFile parses a catalog document from path. Gzip-compressed files are
// detected by their magic bytes.
func ReadFile(path string) (*StaticSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var r io.Reader = br
	if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := pgzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	src, err := decodeSeed(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return src, nil
}

func decodeSeed(r io.Reader) (*StaticSource, error) {
	var doc seedJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode catalog JSON")
	}

	src := &StaticSource{
		products:   make([]product.Product, 0, len(doc.Products)),
		categories: make([]product.Category, 0, len(doc.Categories)),
	}
	for _, c := range doc.Categories {
		cat := product.Category{ID: c.ID, Name: c.Name, Image: c.Image}
		for _, s := range c.Subcategories {
			cat.Subcategories = append(cat.Subcategories, product.Subcategory{ID: s.ID, Name: s.Name})
		}
		src.categories = append(src.categories, cat)
	}
	for _, p := range doc.Products {
		if p.ID == "" {
			return nil, errors.Errorf("product %q has no id", p.Name)
		}
		src.products = append(src.products, product.Product(p))
	}
	return src, nil
}

// Products implements product.Source.
func (s *StaticSource) Products(context.Context) ([]product.Product, error) {
	return s.products, nil
}

// Categories implements product.Source.
func (s *StaticSource) Categories(context.Context) ([]product.Category, error) {
	return s.categories, nil
}
