package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order. The forward path is
// pending -> confirmed -> processing -> shipped -> delivered; cancellation is
// a terminal branch reachable from any state before shipment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid reports whether s is one of the known order statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
// Shipped, delivered and already-cancelled orders may not.
func (s Status) Cancellable() bool {
	switch s {
	case StatusShipped, StatusDelivered, StatusCancelled:
		return false
	}
	return true
}

// PaymentStatus tracks the payment side of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod is the opaque payment selector; no charge is processed here.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentPaypal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
)

// IsValid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCard, PaymentPaypal, PaymentCashOnDelivery, PaymentBankTransfer:
		return true
	}
	return false
}

// Address is a postal address. All fields are required for shipping addresses.
type Address struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Complete reports whether every field of the address is set.
func (a Address) Complete() bool {
	return a.Address != "" && a.City != "" && a.State != "" && a.PostalCode != "" && a.Country != ""
}

// LineItem is a snapshot of a product at the moment it was reserved for an
// order. It never changes after the order is created, regardless of later
// catalog edits.
type LineItem struct {
	ProductID          string          `json:"product"`
	Title              string          `json:"title"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	Thumbnail          string          `json:"thumbnail,omitempty"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	DiscountedPrice    decimal.Decimal `json:"discountedPrice"`
	Total              decimal.Decimal `json:"total"`
}

// Order is the persisted order aggregate. Totals are computed once at
// creation and never recomputed; lifecycle transitions only touch the status,
// payment and timestamp fields.
type Order struct {
	ID                 string
	UserID             string
	Items              []LineItem
	TotalProducts      int
	TotalQuantity      int
	Subtotal           decimal.Decimal
	DiscountedTotal    decimal.Decimal
	ShippingCost       decimal.Decimal
	Tax                decimal.Decimal
	GrandTotal         decimal.Decimal
	Status             Status
	PaymentMethod      PaymentMethod
	PaymentStatus      PaymentStatus
	ShippingAddress    Address
	BillingAddress     Address
	Notes              string
	TrackingNumber     string
	EstimatedDelivery  time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ListFilter narrows and pages an order listing.
type ListFilter struct {
	Status Status // empty means all statuses
	Page   int
	Limit  int
}

// Pagination describes the page of results returned by a listing.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Repository defines persistence operations for orders. Implementations must
// preserve line-item order and never mutate a stored snapshot after creation.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// FindByUser returns one page of the user's orders sorted by creation time
	// descending, plus the total count matching the filter.
	FindByUser(ctx context.Context, userID string, filter ListFilter) ([]Order, int, error)
	Update(ctx context.Context, o *Order) error
}
