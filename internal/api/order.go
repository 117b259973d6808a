package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soni-790/storefront-api/internal/domain/order"
)

const maxNotesLength = 500

type lineRequestBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type placeOrderBody struct {
	Products        []lineRequestBody `json:"products"`
	ShippingAddress order.Address     `json:"shippingAddress"`
	BillingAddress  *order.Address    `json:"billingAddress"`
	PaymentMethod   string            `json:"paymentMethod"`
	Notes           string            `json:"notes"`
}

type cancelOrderBody struct {
	Reason string `json:"reason"`
}

type updateStatusBody struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

type lineItemResponse struct {
	Product            string  `json:"product"`
	Title              string  `json:"title"`
	Price              float64 `json:"price"`
	Quantity           int     `json:"quantity"`
	Thumbnail          string  `json:"thumbnail,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage"`
	DiscountedPrice    float64 `json:"discountedPrice"`
	Total              float64 `json:"total"`
}

type orderResponse struct {
	ID                 string             `json:"id"`
	User               string             `json:"user"`
	Products           []lineItemResponse `json:"products"`
	TotalProducts      int                `json:"totalProducts"`
	TotalQuantity      int                `json:"totalQuantity"`
	Subtotal           float64            `json:"subtotal"`
	DiscountedTotal    float64            `json:"discountedTotal"`
	ShippingCost       float64            `json:"shippingCost"`
	Tax                float64            `json:"tax"`
	GrandTotal         float64            `json:"grandTotal"`
	Status             string             `json:"status"`
	PaymentMethod      string             `json:"paymentMethod"`
	PaymentStatus      string             `json:"paymentStatus"`
	ShippingAddress    order.Address      `json:"shippingAddress"`
	BillingAddress     order.Address      `json:"billingAddress"`
	Notes              string             `json:"notes,omitempty"`
	TrackingNumber     string             `json:"trackingNumber,omitempty"`
	EstimatedDelivery  time.Time          `json:"estimatedDelivery"`
	DeliveredAt        *time.Time         `json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time         `json:"cancelledAt,omitempty"`
	CancellationReason string             `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type orderStatusResponse struct {
	Status            string     `json:"status"`
	PaymentStatus     string     `json:"paymentStatus"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery time.Time  `json:"estimatedDelivery"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

type orderListResponse struct {
	Orders     []orderResponse  `json:"orders"`
	Pagination order.Pagination `json:"pagination"`
}

func toOrderResponse(o *order.Order) orderResponse {
	products := make([]lineItemResponse, len(o.Items))
	for i, item := range o.Items {
		products[i] = lineItemResponse{
			Product:            item.ProductID,
			Title:              item.Title,
			Price:              item.Price.InexactFloat64(),
			Quantity:           item.Quantity,
			Thumbnail:          item.Thumbnail,
			DiscountPercentage: item.DiscountPercentage.InexactFloat64(),
			DiscountedPrice:    item.DiscountedPrice.InexactFloat64(),
			Total:              item.Total.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:                 o.ID,
		User:               o.UserID,
		Products:           products,
		TotalProducts:      o.TotalProducts,
		TotalQuantity:      o.TotalQuantity,
		Subtotal:           o.Subtotal.InexactFloat64(),
		DiscountedTotal:    o.DiscountedTotal.InexactFloat64(),
		ShippingCost:       o.ShippingCost.InexactFloat64(),
		Tax:                o.Tax.InexactFloat64(),
		GrandTotal:         o.GrandTotal.InexactFloat64(),
		Status:             string(o.Status),
		PaymentMethod:      string(o.PaymentMethod),
		PaymentStatus:      string(o.PaymentStatus),
		ShippingAddress:    o.ShippingAddress,
		BillingAddress:     o.BillingAddress,
		Notes:              o.Notes,
		TrackingNumber:     o.TrackingNumber,
		EstimatedDelivery:  o.EstimatedDelivery,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// placeOrder handles POST /api/orders.
func (h *Handler) placeOrder(c *gin.Context) {
	var body placeOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.Notes) > maxNotesLength {
		respondError(c, http.StatusBadRequest, "Notes cannot exceed 500 characters")
		return
	}

	lines := make([]order.LineRequest, len(body.Products))
	for i, p := range body.Products {
		lines[i] = order.LineRequest{ProductID: p.ProductID, Quantity: p.Quantity}
	}

	o, err := h.orders.PlaceOrder(c.Request.Context(), identityFrom(c).UserID, order.PlaceOrderRequest{
		Products:        lines,
		ShippingAddress: body.ShippingAddress,
		BillingAddress:  body.BillingAddress,
		PaymentMethod:   order.PaymentMethod(body.PaymentMethod),
		Notes:           body.Notes,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := toOrderResponse(o)
	respond(c, http.StatusCreated, "Order created successfully", resp)
}

// listMyOrders handles GET /api/orders.
func (h *Handler) listMyOrders(c *gin.Context) {
	filter := order.ListFilter{
		Status: order.Status(c.Query("status")),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 10),
	}

	orders, pagination, err := h.orders.ListMyOrders(c.Request.Context(), identityFrom(c).UserID, filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := orderListResponse{
		Orders:     make([]orderResponse, len(orders)),
		Pagination: pagination,
	}
	for i := range orders {
		resp.Orders[i] = toOrderResponse(&orders[i])
	}
	respond(c, http.StatusOK, "", resp)
}

// getOrder handles GET /api/orders/:id.
func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), identityFrom(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	resp := toOrderResponse(o)
	respond(c, http.StatusOK, "", resp)
}

// getOrderStatus handles GET /api/orders/:id/status.
func (h *Handler) getOrderStatus(c *gin.Context) {
	info, err := h.orders.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respond(c, http.StatusOK, "", orderStatusResponse{
		Status:            string(info.Status),
		PaymentStatus:     string(info.PaymentStatus),
		TrackingNumber:    info.TrackingNumber,
		EstimatedDelivery: info.EstimatedDelivery,
		DeliveredAt:       info.DeliveredAt,
	})
}

// cancelOrder handles PUT /api/orders/:id/cancel.
func (h *Handler) cancelOrder(c *gin.Context) {
	var body cancelOrderBody
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	o, err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"), identityFrom(c), body.Reason)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	resp := toOrderResponse(o)
	respond(c, http.StatusOK, "Order cancelled successfully", resp)
}

// updateOrderStatus handles PUT /api/orders/:id/status (admin only).
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var body updateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), identityFrom(c), order.UpdateStatusRequest{
		Status:         body.Status,
		TrackingNumber: body.TrackingNumber,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	resp := toOrderResponse(o)
	respond(c, http.StatusOK, "Order status updated successfully", resp)
}

// intQuery parses a positive integer query parameter, falling back on def.
func intQuery(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}
