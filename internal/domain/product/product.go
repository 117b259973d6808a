package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a reservation asked for more units than are
// available. Available carries the stock count at the time of the attempt.
type InsufficientStockError struct {
	Title     string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s. Available: %d", e.Title, e.Available)
}

// Availability is the derived stock label shown to clients.
type Availability string

const (
	InStock    Availability = "In Stock"
	LowStock   Availability = "Low Stock"
	OutOfStock Availability = "Out of Stock"
)

// lowStockThreshold is the stock count below which a product is labelled Low Stock.
const lowStockThreshold = 10

// AvailabilityForStock derives the availability label from a stock count.
// Every stock mutation must recompute the label through this function so the
// two never drift apart.
func AvailabilityForStock(stock int) Availability {
	switch {
	case stock <= 0:
		return OutOfStock
	case stock < lowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID                 string
	SKU                string
	Title              string
	Description        string
	Category           string
	Brand              string
	Price              decimal.Decimal
	DiscountPercentage decimal.Decimal
	Rating             decimal.Decimal
	Stock              int
	Availability       Availability
	Thumbnail          string
}

// Repository combines catalog reads with the inventory ledger operations.
//
// Reserve atomically decrements stock by qty and recomputes availability. It
// returns ErrNotFound for an unknown id and *InsufficientStockError when fewer
// than qty units remain; in both failure cases stock is unchanged. Release is
// the inverse, used only when an order is cancelled. Both must be atomic with
// respect to concurrent calls on the same product; implementations must not
// serialize operations on unrelated products.
type Repository interface {
	List(ctx context.Context, page, limit int) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Reserve(ctx context.Context, id string, qty int) (*Product, error)
	Release(ctx context.Context, id string, qty int) (*Product, error)
}
