package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/soni-790/storefront-api/internal/domain/order"
	"github.com/soni-790/storefront-api/internal/domain/product"
)

// envelope is the uniform JSON response shape of the API.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

// respondDomainError maps domain errors to HTTP statuses. Anything unexpected
// becomes a 500 with the cause logged, never exposed.
func respondDomainError(c *gin.Context, err error) {
	var (
		iqErr *order.InvalidQuantityError
		isErr *product.InsufficientStockError
		trErr *order.InvalidTransitionError
		stErr *order.InvalidStatusError
	)
	switch {
	case errors.Is(err, order.ErrEmptyProducts):
		respondError(c, http.StatusBadRequest, "Please provide products to order")
	case errors.Is(err, order.ErrIncompleteAddress):
		respondError(c, http.StatusBadRequest, "Please provide complete shipping address")
	case errors.Is(err, order.ErrMissingPaymentMethod):
		respondError(c, http.StatusBadRequest, "Please provide payment method")
	case errors.As(err, &iqErr):
		respondError(c, http.StatusBadRequest, iqErr.Error())
	case errors.Is(err, product.ErrNotFound):
		respondError(c, http.StatusNotFound, "Product not found")
	case errors.As(err, &isErr):
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Insufficient stock for product: %s. Available: %d", isErr.Title, isErr.Available))
	case errors.Is(err, order.ErrNotFound):
		respondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, order.ErrForbidden):
		respondError(c, http.StatusForbidden, "Not authorized to access this order")
	case errors.As(err, &trErr):
		respondError(c, http.StatusBadRequest, trErr.Error())
	case errors.As(err, &stErr):
		respondError(c, http.StatusBadRequest, "Invalid status value")
	default:
		zctx.From(c.Request.Context()).Error("request failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Server error")
	}
}
