package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soni-790/storefront-api/internal/domain/product"
)

type productResponse struct {
	ID                 string  `json:"id"`
	SKU                string  `json:"sku"`
	Title              string  `json:"title"`
	Description        string  `json:"description,omitempty"`
	Category           string  `json:"category"`
	Brand              string  `json:"brand,omitempty"`
	Price              float64 `json:"price"`
	DiscountPercentage float64 `json:"discountPercentage"`
	Rating             float64 `json:"rating"`
	Stock              int     `json:"stock"`
	AvailabilityStatus string  `json:"availabilityStatus"`
	Thumbnail          string  `json:"thumbnail,omitempty"`
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	Pagination pagination        `json:"pagination"`
}

type pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:                 p.ID,
		SKU:                p.SKU,
		Title:              p.Title,
		Description:        p.Description,
		Category:           p.Category,
		Brand:              p.Brand,
		Price:              p.Price.InexactFloat64(),
		DiscountPercentage: p.DiscountPercentage.InexactFloat64(),
		Rating:             p.Rating.InexactFloat64(),
		Stock:              p.Stock,
		AvailabilityStatus: string(p.Availability),
		Thumbnail:          p.Thumbnail,
	}
}

// listProducts handles GET /api/products.
func (h *Handler) listProducts(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)

	products, total, err := h.products.List(c.Request.Context(), page, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := productListResponse{Products: make([]productResponse, len(products))}
	for i := range products {
		resp.Products[i] = toProductResponse(&products[i])
	}
	totalPages := (total + limit - 1) / limit
	resp.Pagination = pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
	respond(c, http.StatusOK, "", resp)
}

// getProduct handles GET /api/products/:id.
func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	resp := toProductResponse(p)
	respond(c, http.StatusOK, "", resp)
}
