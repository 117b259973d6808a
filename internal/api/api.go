// Package api exposes the REST surface of the storefront over gin.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/soni-790/storefront-api/internal/domain/auth"
	"github.com/soni-790/storefront-api/internal/domain/order"
	"github.com/soni-790/storefront-api/internal/domain/product"
)

// Handler holds the dependencies of the HTTP handlers and delegates all
// business logic to the domain layer.
type Handler struct {
	products product.Repository
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(products product.Repository, orders *order.Service) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
	}
}

// NewRouter builds the gin engine with all API routes under /api. Order
// routes require a bearer token resolvable through sessions; product reads
// are public.
func NewRouter(h *Handler, sessions auth.Repository, pepper []byte) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	api := engine.Group("/api")
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)

	orders := api.Group("/orders")
	orders.Use(AuthRequired(sessions, pepper))
	orders.POST("", h.placeOrder)
	orders.GET("", h.listMyOrders)
	orders.GET("/:id", h.getOrder)
	orders.GET("/:id/status", h.getOrderStatus)
	orders.PUT("/:id/cancel", h.cancelOrder)
	orders.PUT("/:id/status", h.updateOrderStatus)

	return engine
}
