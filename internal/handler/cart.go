package handler

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/cart"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.toCart(sessionOf(c), h.cartOf(c).Snapshot()))
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.catalog.ByID(req.ProductID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req.Size != "" && len(p.Sizes) > 0 && !slices.Contains(p.Sizes, req.Size) {
		abort(c, http.StatusBadRequest, "size not available for this product")
		return
	}
	if req.Color != "" && len(p.Colors) > 0 && !slices.Contains(p.Colors, req.Color) {
		abort(c, http.StatusBadRequest, "color not available for this product")
		return
	}

	h.mutate(c, func(ctx context.Context, s *cart.Store) {
		s.Add(ctx, p, req.Quantity, req.Size, req.Color)
	})
}

// updateCartItem sets the quantity of every line of the product.
func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	h.mutate(c, func(ctx context.Context, s *cart.Store) {
		s.UpdateQuantity(ctx, c.Param("productId"), req.Quantity)
	})
}

// removeCartItem drops every line of the product.
func (h *Handler) removeCartItem(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, s *cart.Store) {
		s.Remove(ctx, c.Param("productId"))
	})
}

func (h *Handler) clearCart(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, s *cart.Store) {
		s.Clear(ctx)
	})
}

// mutate runs fn on the session's cart and replies with the cart and the
// toast text of the last notification fn produced.
func (h *Handler) mutate(c *gin.Context, fn func(ctx context.Context, s *cart.Store)) {
	ctx, notes := cart.CollectNotifications(c.Request.Context())
	store := h.cartOf(c)
	fn(ctx, store)

	resp := h.toCart(sessionOf(c), store.Snapshot())
	if n := notes(); len(n) > 0 {
		resp.Message = n[len(n)-1].Message
	}
	c.JSON(http.StatusOK, resp)
}
