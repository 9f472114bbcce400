// Package handler exposes the catalog, cart and checkout over a JSON HTTP API
// built on gin.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/cart"
	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/checkout"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in responses.
	ImageBaseURL string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Handler serves the storefront API.
type Handler struct {
	catalog  *catalog.Catalog
	carts    *cart.Registry
	checkout *checkout.Service

	imageBaseURL  string
	secureCookies bool
}

// New creates a Handler.
func New(cfg Config, cat *catalog.Catalog, carts *cart.Registry, co *checkout.Service) *Handler {
	return &Handler{
		catalog:       cat,
		carts:         carts,
		checkout:      co,
		imageBaseURL:  cfg.ImageBaseURL,
		secureCookies: cfg.SecureCookies,
	}
}

// Register mounts the API routes under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/categories", h.listCategories)
		api.GET("/categories/:id", h.getCategory)
		api.GET("/categories/:id/products", h.listCategoryProducts)

		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
	}

	session := api.Group("", h.session)
	{
		session.GET("/cart", h.getCart)
		session.DELETE("/cart", h.clearCart)
		session.POST("/cart/items", h.addCartItem)
		session.PATCH("/cart/items/:productId", h.updateCartItem)
		session.DELETE("/cart/items/:productId", h.removeCartItem)
		session.GET("/cart/quote", h.quote)

		session.POST("/checkout", h.placeOrder)
	}
}

// Engine returns a gin engine serving only the API routes. Unknown routes
// get the JSON error body.
func (h *Handler) Engine() *gin.Engine {
	e := gin.New()
	e.HandleMethodNotAllowed = true
	e.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "route not found")
	})
	e.NoMethod(func(c *gin.Context) {
		abort(c, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.Register(e)
	return e
}
