package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soni-790/storefront-api/internal/domain/product"
)

const productColumns = `id, sku, title, description, category, brand,
		price, discount_percentage, rating, stock, availability_status, thumbnail`

const (
	listProductsSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	countProductsSQL = `SELECT count(*) FROM products`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	// Conditional decrement: the WHERE clause makes the stock check and the
	// write a single atomic statement, so two concurrent reservations can
	// never both succeed on the last units. Availability is recomputed in the
	// same statement from the post-decrement stock.
	reserveStockSQL = `UPDATE products
		SET stock = stock - $2,
		    availability_status = CASE
		        WHEN stock - $2 <= 0 THEN 'Out of Stock'
		        WHEN stock - $2 < 10 THEN 'Low Stock'
		        ELSE 'In Stock'
		    END,
		    updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING ` + productColumns

	// Restocking with qty >= 1 can never land on zero, so unlike the reserve
	// CASE there is no out-of-stock branch.
	releaseStockSQL = `UPDATE products
		SET stock = stock + $2,
		    availability_status = CASE
		        WHEN stock + $2 < 10 THEN 'Low Stock'
		        ELSE 'In Stock'
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of the catalog, newest first, plus the total count.
func (r *ProductRepository) List(ctx context.Context, page, limit int) ([]product.Product, int, error) {
	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx, listProductsSQL, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}
	return products, total, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Reserve atomically decrements stock by qty when enough units remain. The
// conditional UPDATE matches zero rows either when the product is missing or
// when stock is short; a follow-up read disambiguates the two for the error.
func (r *ProductRepository) Reserve(ctx context.Context, id string, qty int) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, reserveStockSQL, id, qty)
	if err != nil {
		return nil, fmt.Errorf("reserving %d of product %q: %w", qty, id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserving %d of product %q: %w", qty, id, err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &product.InsufficientStockError{Title: current.Title, Available: current.Stock}
}

// Release returns qty units to stock, recomputing availability.
func (r *ProductRepository) Release(ctx context.Context, id string, qty int) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, releaseStockSQL, id, qty)
	if err != nil {
		return nil, fmt.Errorf("releasing %d of product %q: %w", qty, id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("releasing %d of product %q: %w", qty, id, err)
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Title, &p.Description, &p.Category, &p.Brand,
		&p.Price, &p.DiscountPercentage, &p.Rating, &p.Stock, &p.Availability, &p.Thumbnail,
	)
	return p, err
}
