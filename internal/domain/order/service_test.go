package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soni-790/storefront-api/internal/domain/auth"
	"github.com/soni-790/storefront-api/internal/domain/product"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID     map[string]*product.Product
	reserved []string // product ids in reservation order
	released map[string]int
}

func newCatalog(products ...product.Product) *mockCatalog {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockCatalog{byID: byID, released: map[string]int{}}
}

func (m *mockCatalog) List(_ context.Context, _, _ int) ([]product.Product, int, error) {
	return nil, 0, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockCatalog) Reserve(_ context.Context, id string, qty int) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if p.Stock < qty {
		return nil, &product.InsufficientStockError{Title: p.Title, Available: p.Stock}
	}
	p.Stock -= qty
	p.Availability = product.AvailabilityForStock(p.Stock)
	m.reserved = append(m.reserved, id)
	return p, nil
}

func (m *mockCatalog) Release(_ context.Context, id string, qty int) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p.Stock += qty
	p.Availability = product.AvailabilityForStock(p.Stock)
	m.released[id] += qty
	return p, nil
}

type mockOrderRepo struct {
	byID      map[string]*Order
	created   *Order
	createErr error
	updateErr error
}

func newOrderRepo(orders ...*Order) *mockOrderRepo {
	byID := make(map[string]*Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrderRepo{byID: byID}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) FindByUser(_ context.Context, userID string, filter ListFilter) ([]Order, int, error) {
	var all []Order
	for _, o := range m.byID {
		if o.UserID == userID && (filter.Status == "" || o.Status == filter.Status) {
			all = append(all, *o)
		}
	}
	start := (filter.Page - 1) * filter.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.byID[o.ID] = o
	return nil
}

// --- Helpers ---

func testProduct(id, title string, price string, discount string, stock int) product.Product {
	return product.Product{
		ID:                 id,
		SKU:                "SKU-" + id,
		Title:              title,
		Price:              decimal.RequireFromString(price),
		DiscountPercentage: decimal.RequireFromString(discount),
		Stock:              stock,
		Availability:       product.AvailabilityForStock(stock),
	}
}

func validPlaceRequest(lines ...LineRequest) PlaceOrderRequest {
	return PlaceOrderRequest{
		Products: lines,
		ShippingAddress: Address{
			Address:    "1 Main St",
			City:       "Springfield",
			State:      "IL",
			PostalCode: "62701",
			Country:    "USA",
		},
		PaymentMethod: PaymentCard,
	}
}

var (
	alice = auth.Identity{UserID: "u-alice", Role: auth.RoleUser}
	bob   = auth.Identity{UserID: "u-bob", Role: auth.RoleUser}
	admin = auth.Identity{UserID: "u-admin", Role: auth.RoleAdmin}
)

// --- PlaceOrder ---

func TestPlaceOrder_EmptyProducts(t *testing.T) {
	svc := NewService(newCatalog(), newOrderRepo())

	req := validPlaceRequest()
	_, err := svc.PlaceOrder(context.Background(), alice.UserID, req)
	require.ErrorIs(t, err, ErrEmptyProducts)
}

func TestPlaceOrder_IncompleteAddress(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())

	req := validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 1})
	req.ShippingAddress.PostalCode = ""

	_, err := svc.PlaceOrder(context.Background(), alice.UserID, req)
	require.ErrorIs(t, err, ErrIncompleteAddress)
}

func TestPlaceOrder_MissingPaymentMethod(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())

	req := validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 1})
	req.PaymentMethod = ""

	_, err := svc.PlaceOrder(context.Background(), alice.UserID, req)
	require.ErrorIs(t, err, ErrMissingPaymentMethod)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())

	_, err := svc.PlaceOrder(context.Background(), alice.UserID,
		validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 0}))

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	svc := NewService(newCatalog(), newOrderRepo())

	_, err := svc.PlaceOrder(context.Background(), alice.UserID,
		validPlaceRequest(LineRequest{ProductID: "missing", Quantity: 1}))
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	catalog := newCatalog(testProduct("p1", "Widget", "10", "0", 2))
	svc := NewService(catalog, newOrderRepo())

	_, err := svc.PlaceOrder(context.Background(), alice.UserID,
		validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 3}))

	var isErr *product.InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "Widget", isErr.Title)
	assert.Equal(t, 2, isErr.Available)
	assert.Equal(t, 2, catalog.byID["p1"].Stock, "failed reserve must not change stock")
}

func TestPlaceOrder_ComputesTotalsAndDecrementsStock(t *testing.T) {
	catalog := newCatalog(testProduct("p1", "Widget", "100", "10", 5))
	repo := newOrderRepo()
	svc := NewService(catalog, repo)

	o, err := svc.PlaceOrder(context.Background(), alice.UserID,
		validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.True(t, decimal.RequireFromString("90").Equal(item.DiscountedPrice))
	assert.True(t, decimal.RequireFromString("180").Equal(item.Total))

	assert.Equal(t, 1, o.TotalProducts)
	assert.Equal(t, 2, o.TotalQuantity)
	assert.True(t, decimal.RequireFromString("180").Equal(o.DiscountedTotal))
	assert.True(t, o.ShippingCost.IsZero())
	assert.True(t, decimal.RequireFromString("14.4").Equal(o.Tax))
	assert.True(t, decimal.RequireFromString("194.4").Equal(o.GrandTotal))

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, 3, catalog.byID["p1"].Stock)
	assert.Same(t, o, repo.created)
}

func TestPlaceOrder_BillingDefaultsToShipping(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())

	req := validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 1})
	o, err := svc.PlaceOrder(context.Background(), alice.UserID, req)
	require.NoError(t, err)
	assert.Equal(t, req.ShippingAddress, o.BillingAddress)

	billing := Address{Address: "2 Oak Ave", City: "Shelbyville", State: "IL", PostalCode: "62565", Country: "USA"}
	req.BillingAddress = &billing
	o, err = svc.PlaceOrder(context.Background(), alice.UserID, req)
	require.NoError(t, err)
	assert.Equal(t, billing, o.BillingAddress)
}

func TestPlaceOrder_EstimatedDeliveryWindow(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 100)), newOrderRepo())

	for range 20 {
		before := time.Now()
		o, err := svc.PlaceOrder(context.Background(), alice.UserID,
			validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 1}))
		require.NoError(t, err)

		days := o.EstimatedDelivery.Sub(before).Hours() / 24
		assert.GreaterOrEqual(t, days, 4.9)
		assert.LessOrEqual(t, days, 7.1)
	}
}

func TestPlaceOrder_PartialReservationIsNotRolledBack(t *testing.T) {
	// Item two fails after item one already took stock. The earlier decrement
	// stays in place and no order is persisted.
	catalog := newCatalog(
		testProduct("p1", "Widget", "10", "0", 5),
		testProduct("p2", "Gadget", "20", "0", 1),
	)
	repo := newOrderRepo()
	svc := NewService(catalog, repo)

	_, err := svc.PlaceOrder(context.Background(), alice.UserID, validPlaceRequest(
		LineRequest{ProductID: "p1", Quantity: 2},
		LineRequest{ProductID: "p2", Quantity: 3},
	))

	var isErr *product.InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, 3, catalog.byID["p1"].Stock, "first item's reservation is kept")
	assert.Equal(t, 1, catalog.byID["p2"].Stock)
	assert.Nil(t, repo.created)
}

func TestPlaceOrder_ReservesInInputOrder(t *testing.T) {
	catalog := newCatalog(
		testProduct("p1", "Widget", "10", "0", 5),
		testProduct("p2", "Gadget", "20", "0", 5),
		testProduct("p3", "Gizmo", "30", "0", 5),
	)
	svc := NewService(catalog, newOrderRepo())

	_, err := svc.PlaceOrder(context.Background(), alice.UserID, validPlaceRequest(
		LineRequest{ProductID: "p3", Quantity: 1},
		LineRequest{ProductID: "p1", Quantity: 1},
		LineRequest{ProductID: "p2", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1", "p2"}, catalog.reserved)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	repo := newOrderRepo()
	repo.createErr = errors.New("db write failed")
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), repo)

	_, err := svc.PlaceOrder(context.Background(), alice.UserID,
		validPlaceRequest(LineRequest{ProductID: "p1", Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

// --- GetOrder / GetStatus ---

func placedOrder(t *testing.T, svc *Service, who auth.Identity, lines ...LineRequest) *Order {
	t.Helper()
	o, err := svc.PlaceOrder(context.Background(), who.UserID, validPlaceRequest(lines...))
	require.NoError(t, err)
	return o
}

func TestGetOrder_OwnerAndAdmin(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	got, err := svc.GetOrder(context.Background(), o.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	got, err = svc.GetOrder(context.Background(), o.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestGetOrder_ForbiddenForStranger(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	_, err := svc.GetOrder(context.Background(), o.ID, bob)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc := NewService(newCatalog(), newOrderRepo())
	_, err := svc.GetOrder(context.Background(), "nope", alice)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatus(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	info, err := svc.GetStatus(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, info.Status)
	assert.Equal(t, PaymentPending, info.PaymentStatus)
	assert.Nil(t, info.DeliveredAt)
}

// --- ListMyOrders ---

func TestListMyOrders_PaginationMetadata(t *testing.T) {
	repo := newOrderRepo()
	for i := range 25 {
		repo.byID[string(rune('a'+i))] = &Order{ID: string(rune('a' + i)), UserID: alice.UserID, Status: StatusPending}
	}
	svc := NewService(newCatalog(), repo)

	orders, page, err := svc.ListMyOrders(context.Background(), alice.UserID, ListFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, orders, 10)
	assert.Equal(t, Pagination{
		Total: 25, Page: 2, Limit: 10, TotalPages: 3,
		HasNextPage: true, HasPrevPage: true,
	}, page)
}

func TestListMyOrders_DefaultsAndStatusFilter(t *testing.T) {
	repo := newOrderRepo(
		&Order{ID: "o1", UserID: alice.UserID, Status: StatusPending},
		&Order{ID: "o2", UserID: alice.UserID, Status: StatusCancelled},
		&Order{ID: "o3", UserID: bob.UserID, Status: StatusPending},
	)
	svc := NewService(newCatalog(), repo)

	orders, page, err := svc.ListMyOrders(context.Background(), alice.UserID, ListFilter{Status: StatusCancelled})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o2", orders[0].ID)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.False(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
}

func TestListMyOrders_InvalidStatus(t *testing.T) {
	svc := NewService(newCatalog(), newOrderRepo())

	_, _, err := svc.ListMyOrders(context.Background(), alice.UserID, ListFilter{Status: "limbo"})
	var stErr *InvalidStatusError
	require.ErrorAs(t, err, &stErr)
}

// --- CancelOrder ---

func TestCancelOrder_RestoresStockAndRefunds(t *testing.T) {
	catalog := newCatalog(testProduct("p1", "Widget", "10", "0", 5))
	svc := NewService(catalog, newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 3})
	require.Equal(t, 2, catalog.byID["p1"].Stock)
	o.PaymentStatus = PaymentPaid

	cancelled, err := svc.CancelOrder(context.Background(), o.ID, alice, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, PaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 5, catalog.byID["p1"].Stock)
	assert.Equal(t, product.LowStock, catalog.byID["p1"].Availability)
}

func TestCancelOrder_DefaultReason(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	cancelled, err := svc.CancelOrder(context.Background(), o.ID, alice, "")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by user", cancelled.CancellationReason)
}

func TestCancelOrder_BlockedAfterShipment(t *testing.T) {
	catalog := newCatalog(testProduct("p1", "Widget", "10", "0", 5))
	svc := NewService(catalog, newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 2})
	o.Status = StatusShipped

	_, err := svc.CancelOrder(context.Background(), o.ID, alice, "")
	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StatusShipped, trErr.Status)
	assert.Equal(t, 3, catalog.byID["p1"].Stock, "stock unchanged on refused cancel")
}

func TestCancelOrder_AlreadyCancelled(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	_, err := svc.CancelOrder(context.Background(), o.ID, alice, "")
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), o.ID, alice, "")
	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
}

func TestCancelOrder_ForbiddenForStranger(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	_, err := svc.CancelOrder(context.Background(), o.ID, bob, "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCancelOrder_AdminMayCancel(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	cancelled, err := svc.CancelOrder(context.Background(), o.ID, admin, "fraud review")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

// --- UpdateStatus ---

func TestUpdateStatus_AdminOnly(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	_, err := svc.UpdateStatus(context.Background(), o.ID, alice, UpdateStatusRequest{Status: "shipped"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateStatus_SetsStatusAndTracking(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	updated, err := svc.UpdateStatus(context.Background(), o.ID, admin, UpdateStatusRequest{
		Status:         "shipped",
		TrackingNumber: "TRK-123",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	assert.Equal(t, "TRK-123", updated.TrackingNumber)
	assert.Nil(t, updated.DeliveredAt)
}

func TestUpdateStatus_DeliveredStampsTimestamp(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	updated, err := svc.UpdateStatus(context.Background(), o.ID, admin, UpdateStatusRequest{Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
	assert.WithinDuration(t, time.Now(), *updated.DeliveredAt, time.Minute)
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	_, err := svc.UpdateStatus(context.Background(), o.ID, admin, UpdateStatusRequest{Status: "teleported"})
	var stErr *InvalidStatusError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, "teleported", stErr.Value)
}

func TestUpdateStatus_TrackingOnly(t *testing.T) {
	svc := NewService(newCatalog(testProduct("p1", "Widget", "10", "0", 5)), newOrderRepo())
	o := placedOrder(t, svc, alice, LineRequest{ProductID: "p1", Quantity: 1})

	updated, err := svc.UpdateStatus(context.Background(), o.ID, admin, UpdateStatusRequest{TrackingNumber: "TRK-9"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)
	assert.Equal(t, "TRK-9", updated.TrackingNumber)
}
