package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/soni-790/storefront-api/internal/domain/auth"
	"github.com/soni-790/storefront-api/internal/domain/product"
)

// Sentinel errors for order validation and access control.
var (
	ErrEmptyProducts        = fmt.Errorf("no products to order")
	ErrIncompleteAddress    = fmt.Errorf("incomplete shipping address")
	ErrMissingPaymentMethod = fmt.Errorf("payment method required")
	ErrNotFound             = fmt.Errorf("order not found")
	ErrForbidden            = fmt.Errorf("not authorized to access this order")
)

// InvalidQuantityError indicates a line request with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1 for product %s", e.ProductID)
}

// InvalidTransitionError indicates a disallowed status change, currently only
// cancelling an order that has already shipped, been delivered, or cancelled.
type InvalidTransitionError struct {
	Status Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot cancel order with status: %s", e.Status)
}

// InvalidStatusError indicates a status value outside the known enum.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status value: %s", e.Value)
}

// defaultCancellationReason is recorded when the caller gives none.
const defaultCancellationReason = "Cancelled by user"

// Estimated delivery window: 5 to 7 days from placement, inclusive.
const (
	deliveryMinDays  = 5
	deliveryDaysSpan = 3
)

// LineRequest is one (product, quantity) pair of a placement request.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Products        []LineRequest
	ShippingAddress Address
	BillingAddress  *Address
	PaymentMethod   PaymentMethod
	Notes           string
}

// StatusInfo is the lightweight status projection of an order.
type StatusInfo struct {
	Status            Status
	PaymentStatus     PaymentStatus
	TrackingNumber    string
	EstimatedDelivery time.Time
	DeliveredAt       *time.Time
}

// UpdateStatusRequest holds the input for an admin status update. Status may
// be empty for a tracking-number-only update.
type UpdateStatusRequest struct {
	Status         string
	TrackingNumber string
}

// Service orchestrates the order lifecycle: placement, reads, cancellation and
// admin-driven status transitions.
type Service struct {
	catalog product.Repository
	orders  Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(catalog product.Repository, orders Repository) *Service {
	return &Service{
		catalog: catalog,
		orders:  orders,
	}
}

// PlaceOrder validates the request, reserves stock for each line item in
// input order, prices the snapshots, and persists the order.
//
// Reservations are applied incrementally: when item N fails, the stock already
// taken for items 1..N-1 stays decremented and no order is persisted. This
// mirrors the behavior of the system this one replaced; adding a compensating
// rollback would change retry semantics and needs a product decision first.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*Order, error) {
	if len(req.Products) == 0 {
		return nil, ErrEmptyProducts
	}
	if !req.ShippingAddress.Complete() {
		return nil, ErrIncompleteAddress
	}
	if req.PaymentMethod == "" || !req.PaymentMethod.IsValid() {
		return nil, ErrMissingPaymentMethod
	}

	items := make([]LineItem, 0, len(req.Products))
	totalQuantity := 0
	for _, line := range req.Products {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}

		p, err := s.catalog.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}

		discountedPrice := DiscountedUnitPrice(p.Price, p.DiscountPercentage)
		qty := decimal.NewFromInt(int64(line.Quantity))
		items = append(items, LineItem{
			ProductID:          p.ID,
			Title:              p.Title,
			Price:              p.Price,
			Quantity:           line.Quantity,
			Thumbnail:          p.Thumbnail,
			DiscountPercentage: p.DiscountPercentage,
			DiscountedPrice:    discountedPrice,
			Total:              discountedPrice.Mul(qty),
		})
		totalQuantity += line.Quantity
	}

	totals := ComputeTotals(items)

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	now := time.Now()
	o := &Order{
		ID:                uuid.New().String(),
		UserID:            userID,
		Items:             items,
		TotalProducts:     len(items),
		TotalQuantity:     totalQuantity,
		Subtotal:          totals.Subtotal,
		DiscountedTotal:   totals.DiscountedTotal,
		ShippingCost:      totals.ShippingCost,
		Tax:               totals.Tax,
		GrandTotal:        totals.GrandTotal,
		Status:            StatusPending,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     PaymentPending,
		ShippingAddress:   req.ShippingAddress,
		BillingAddress:    billing,
		Notes:             req.Notes,
		EstimatedDelivery: now.AddDate(0, 0, deliveryMinDays+rand.IntN(deliveryDaysSpan)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	return o, nil
}

// GetOrder returns the full order. Only the owning user or an admin may read it.
func (s *Service) GetOrder(ctx context.Context, id string, who auth.Identity) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != who.UserID && !who.IsAdmin() {
		return nil, ErrForbidden
	}
	return o, nil
}

// GetStatus returns the status projection of an order. Like the system it
// replaced, this projection carries no order contents and is not subject to
// the ownership check.
func (s *Service) GetStatus(ctx context.Context, id string) (*StatusInfo, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusInfo{
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		DeliveredAt:       o.DeliveredAt,
	}, nil
}

// ListMyOrders returns one page of the user's orders, newest first, optionally
// filtered by status.
func (s *Service) ListMyOrders(ctx context.Context, userID string, filter ListFilter) ([]Order, Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, Pagination{}, &InvalidStatusError{Value: string(filter.Status)}
	}

	orders, total, err := s.orders.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list orders: %w", err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return orders, Pagination{
		Total:       total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		HasNextPage: filter.Page < totalPages,
		HasPrevPage: filter.Page > 1,
	}, nil
}

// CancelOrder cancels a not-yet-shipped order, releasing every line item's
// quantity back to stock. A paid order is marked refunded.
func (s *Service) CancelOrder(ctx context.Context, id string, who auth.Identity, reason string) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != who.UserID && !who.IsAdmin() {
		return nil, ErrForbidden
	}
	if !o.Status.Cancellable() {
		return nil, &InvalidTransitionError{Status: o.Status}
	}

	// Restore stock for every snapshot. A product deleted from the catalog
	// since placement is skipped, matching the original behavior.
	for _, item := range o.Items {
		if _, err := s.catalog.Release(ctx, item.ProductID, item.Quantity); err != nil &&
			!errors.Is(err, product.ErrNotFound) {
			return nil, fmt.Errorf("release stock for %s: %w", item.ProductID, err)
		}
	}

	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	if o.CancellationReason == "" {
		o.CancellationReason = defaultCancellationReason
	}
	if o.PaymentStatus == PaymentPaid {
		o.PaymentStatus = PaymentRefunded
	}
	o.UpdatedAt = now

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// UpdateStatus applies an admin-driven transition. Status is validated against
// the enum when present; delivered orders get their DeliveredAt stamp.
func (s *Service) UpdateStatus(ctx context.Context, id string, who auth.Identity, req UpdateStatusRequest) (*Order, error) {
	if !who.IsAdmin() {
		return nil, ErrForbidden
	}

	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != "" {
		status := Status(req.Status)
		if !status.IsValid() {
			return nil, &InvalidStatusError{Value: req.Status}
		}
		o.Status = status
		if status == StatusDelivered {
			now := time.Now()
			o.DeliveredAt = &now
		}
	}
	if req.TrackingNumber != "" {
		o.TrackingNumber = req.TrackingNumber
	}
	o.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}
