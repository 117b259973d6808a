package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soni-790/storefront-api/internal/domain/order"
)

const orderColumns = `id, user_id, items, total_products, total_quantity,
		subtotal, discounted_total, shipping_cost, tax, grand_total,
		status, payment_method, payment_status,
		shipping_address, billing_address, notes, tracking_number,
		estimated_delivery, delivered_at, cancelled_at, cancellation_reason,
		created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, items, total_products, total_quantity,
			subtotal, discounted_total, shipping_cost, tax, grand_total,
			status, payment_method, payment_status,
			shipping_address, billing_address, notes, estimated_delivery,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	// $3 filters by status when non-empty; an empty string matches all rows.
	findOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	countOrdersByUserSQL = `SELECT count(*) FROM orders
		WHERE user_id = $1 AND ($2 = '' OR status = $2)`

	updateOrderSQL = `UPDATE orders
		SET status = $2, payment_status = $3, tracking_number = $4,
		    delivered_at = $5, cancelled_at = $6, cancellation_reason = $7,
		    updated_at = $8
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line-item
// snapshots live in a JSONB column and are written exactly once, at creation.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	shipJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}
	billJSON, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return fmt.Errorf("marshaling billing address: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.TotalProducts, o.TotalQuantity,
		o.Subtotal, o.DiscountedTotal, o.ShippingCost, o.Tax, o.GrandTotal,
		o.Status, o.PaymentMethod, o.PaymentStatus,
		shipJSON, billJSON, o.Notes, o.EstimatedDelivery,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// FindByID returns the full order aggregate.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// FindByUser returns one page of the user's orders, newest first, plus the
// total count matching the filter.
func (r *OrderRepository) FindByUser(ctx context.Context, userID string, filter order.ListFilter) ([]order.Order, int, error) {
	offset := (filter.Page - 1) * filter.Limit
	rows, err := r.pool.Query(ctx, findOrdersByUserSQL, userID, string(filter.Status), filter.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countOrdersByUserSQL, userID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders for user %q: %w", userID, err)
	}
	return orders, total, nil
}

// Update persists the mutable transition fields of an existing order. Totals,
// line items and addresses are immutable after creation and never rewritten.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, o.Status, o.PaymentStatus, o.TrackingNumber,
		o.DeliveredAt, o.CancelledAt, o.CancellationReason, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		shipJSON  []byte
		billJSON  []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &itemsJSON, &o.TotalProducts, &o.TotalQuantity,
		&o.Subtotal, &o.DiscountedTotal, &o.ShippingCost, &o.Tax, &o.GrandTotal,
		&o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&shipJSON, &billJSON, &o.Notes, &o.TrackingNumber,
		&o.EstimatedDelivery, &o.DeliveredAt, &o.CancelledAt, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(shipJSON, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("unmarshaling shipping address: %w", err)
	}
	if err := json.Unmarshal(billJSON, &o.BillingAddress); err != nil {
		return o, fmt.Errorf("unmarshaling billing address: %w", err)
	}
	return o, nil
}
