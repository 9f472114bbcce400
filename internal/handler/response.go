package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/checkout"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

type productResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          int64    `json:"price"`
	FormattedPrice string   `json:"formattedPrice"`
	Image          string   `json:"image"`
	Category       string   `json:"category"`
	Subcategory    string   `json:"subcategory,omitempty"`
	Featured       bool     `json:"featured"`
	New            bool     `json:"new"`
	BestSeller     bool     `json:"bestSeller"`
	Colors         []string `json:"colors"`
	Sizes          []string `json:"sizes"`
	InStock        bool     `json:"inStock"`
}

type subcategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Image         string                `json:"image"`
	Subcategories []subcategoryResponse `json:"subcategories"`
}

type facetsResponse struct {
	Colors   []string `json:"colors"`
	Sizes    []string `json:"sizes"`
	MinPrice int64    `json:"minPrice"`
	MaxPrice int64    `json:"maxPrice"`
}

type filterResponse struct {
	MinPrice int64    `json:"min"`
	MaxPrice int64    `json:"max"`
	Colors   []string `json:"colors"`
	Sizes    []string `json:"sizes"`
	Sort     string   `json:"sort"`
}

type categoryProductsResponse struct {
	Category    categoryResponse     `json:"category"`
	Subcategory *subcategoryResponse `json:"subcategory,omitempty"`
	Filter      filterResponse       `json:"filter"`
	Facets      facetsResponse       `json:"facets"`
	Count       int                  `json:"count"`
	Products    []productResponse    `json:"products"`
}

type productDetailResponse struct {
	Product productResponse   `json:"product"`
	Related []productResponse `json:"related"`
}

type cartLineResponse struct {
	Product  productResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size,omitempty"`
	Color    string          `json:"color,omitempty"`
	Subtotal int64           `json:"subtotal"`
}

type cartResponse struct {
	Session        string             `json:"session"`
	Items          []cartLineResponse `json:"items"`
	Count          int                `json:"count"`
	Total          int64              `json:"total"`
	FormattedTotal string             `json:"formattedTotal"`
	// Message is the toast text of the mutation that produced the response.
	Message string `json:"message,omitempty"`
}

type quoteResponse struct {
	Subtotal          float64 `json:"subtotal"`
	Shipping          float64 `json:"shipping"`
	Taxes             float64 `json:"taxes"`
	Discount          float64 `json:"discount"`
	Total             float64 `json:"total"`
	CouponCode        string  `json:"couponCode,omitempty"`
	CouponDescription string  `json:"couponDescription,omitempty"`
}

type orderItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type confirmationResponse struct {
	OrderNumber string              `json:"orderNumber"`
	Status      string              `json:"status"`
	PlacedAt    time.Time           `json:"placedAt"`
	Quote       quoteResponse       `json:"summary"`
	Items       []orderItemResponse `json:"items"`
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (h *Handler) toProduct(p product.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		FormattedPrice: catalog.FormatPrice(p.Price),
		Image:          h.imageURL(p.Image),
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		Featured:       p.Featured,
		New:            p.New,
		BestSeller:     p.BestSeller,
		Colors:         nonNil(p.Colors),
		Sizes:          nonNil(p.Sizes),
		InStock:        p.InStock,
	}
}

func (h *Handler) toProducts(ps []product.Product) []productResponse {
	out := make([]productResponse, len(ps))
	for i, p := range ps {
		out[i] = h.toProduct(p)
	}
	return out
}

func (h *Handler) toCategory(c product.Category) categoryResponse {
	subs := make([]subcategoryResponse, len(c.Subcategories))
	for i, s := range c.Subcategories {
		subs[i] = subcategoryResponse{ID: s.ID, Name: s.Name}
	}
	return categoryResponse{ID: c.ID, Name: c.Name, Image: h.imageURL(c.Image), Subcategories: subs}
}

func (h *Handler) toCart(session string, snap cart.Snapshot) cartResponse {
	items := make([]cartLineResponse, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = cartLineResponse{
			Product:  h.toProduct(l.Product),
			Quantity: l.Quantity,
			Size:     l.Size,
			Color:    l.Color,
			Subtotal: l.Subtotal(),
		}
	}
	return cartResponse{
		Session:        session,
		Items:          items,
		Count:          snap.Count,
		Total:          snap.Total,
		FormattedTotal: catalog.FormatPrice(snap.Total),
	}
}

func toFacets(f catalog.Facets) facetsResponse {
	return facetsResponse{Colors: f.Colors, Sizes: f.Sizes, MinPrice: f.MinPrice, MaxPrice: f.MaxPrice}
}

func toFilter(f catalog.Filter) filterResponse {
	return filterResponse{
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Colors:   nonNil(f.Colors),
		Sizes:    nonNil(f.Sizes),
		Sort:     string(f.Sort),
	}
}

func toQuote(q checkout.Quote) quoteResponse {
	return quoteResponse{
		Subtotal:          money(q.Subtotal),
		Shipping:          money(q.Shipping),
		Taxes:             money(q.Taxes),
		Discount:          money(q.Discount),
		Total:             money(q.Total),
		CouponCode:        q.CouponCode,
		CouponDescription: q.CouponDescription,
	}
}

func toConfirmation(c *checkout.Confirmation) confirmationResponse {
	return confirmationResponse{
		OrderNumber: c.OrderNumber,
		Status:      c.Status,
		PlacedAt:    c.PlacedAt,
		Quote:       toQuote(c.Quote),
		Items:       toOrderItems(c.Items),
	}
}

func toOrderItems(items []order.Item) []orderItemResponse {
	out := make([]orderItemResponse, len(items))
	for i, it := range items {
		out[i] = orderItemResponse(it)
	}
	return out
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
