package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/product"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorResponse{Code: code, Message: message})
}

// abortWithError maps domain errors to API errors. Unknown errors are logged
// and reported as 500 without details.
func abortWithError(c *gin.Context, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "please correct the highlighted fields",
			Fields:  verr.Fields,
		})
	case errors.Is(err, product.ErrNotFound):
		abort(c, http.StatusNotFound, "product not found")
	case errors.Is(err, product.ErrCategoryNotFound):
		abort(c, http.StatusNotFound, "category not found")
	case errors.Is(err, coupon.ErrInvalidCoupon):
		abort(c, http.StatusUnprocessableEntity, "invalid coupon code")
	case errors.Is(err, coupon.ErrCouponExpired):
		abort(c, http.StatusUnprocessableEntity, "coupon expired")
	case errors.Is(err, checkout.ErrEmptyCart):
		abort(c, http.StatusUnprocessableEntity, "cart is empty")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusServiceUnavailable, "request cancelled")
	default:
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		abort(c, http.StatusInternalServerError, "internal server error")
	}
}
