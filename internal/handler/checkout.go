package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/storefront/internal/checkout"
)

type checkoutRequest struct {
	Shipping   checkout.ShippingDetails `json:"shipping"`
	Payment    checkout.Payment         `json:"payment"`
	CouponCode string                   `json:"couponCode"`
}

// quote prices the session cart, applying ?coupon= when given.
func (h *Handler) quote(c *gin.Context) {
	q, err := h.checkout.Quote(c.Request.Context(), h.cartOf(c).Snapshot(), c.Query("coupon"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuote(q))
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	conf, err := h.checkout.PlaceOrder(c.Request.Context(), h.cartOf(c), checkout.PlaceOrderRequest{
		Session:    sessionOf(c),
		Shipping:   req.Shipping,
		Payment:    req.Payment,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConfirmation(conf))
}
