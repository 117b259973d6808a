// Package cart implements an in-memory shopping cart. It holds product line
// entries in insertion order and knows nothing about persistence or checkout;
// callers convert its lines into an order request when the user checks out.
package cart

import "github.com/shopspring/decimal"

// Item is a single cart line.
type Item struct {
	ProductID string
	Title     string
	Price     decimal.Decimal
	Thumbnail string
	Quantity  int
}

// Cart accumulates items for a single shopper. It is not safe for concurrent
// use; guard it externally if shared.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of the item in the cart. If a line with the same
// ProductID already exists, its quantity goes up by one instead of adding a
// duplicate line. Items without a ProductID are ignored.
func (c *Cart) Add(item Item) {
	if item.ProductID == "" {
		return
	}
	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	c.items = append(c.items, item)
}

// Increase bumps the quantity of the line with the given product ID.
// Unknown IDs are a no-op.
func (c *Cart) Increase(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity++
			return
		}
	}
}

// Decrease lowers the quantity of the line with the given product ID,
// removing the line once it reaches zero.
func (c *Cart) Decrease(productID string) {
	for i := range c.items {
		if c.items[i].ProductID != productID {
			continue
		}
		c.items[i].Quantity--
		if c.items[i].Quantity <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
		return
	}
}

// Remove deletes the line with the given product ID regardless of quantity.
func (c *Cart) Remove(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// TotalQuantity returns the total unit count across all lines.
func (c *Cart) TotalQuantity() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of price times quantity across all lines,
// before any discounts.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
