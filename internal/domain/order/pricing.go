package order

import "github.com/shopspring/decimal"

var (
	hundred               = decimal.NewFromInt(100)
	taxRate               = decimal.RequireFromString("0.08")
	flatShippingCost      = decimal.NewFromInt(10)
	freeShippingThreshold = decimal.NewFromInt(100)
)

// Totals holds the monetary aggregates of an order, computed once at creation.
type Totals struct {
	Subtotal        decimal.Decimal
	DiscountedTotal decimal.Decimal
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	GrandTotal      decimal.Decimal
}

// DiscountedUnitPrice returns price reduced by discountPercentage (0-100),
// rounded to cents. Rounding here keeps every derived line total and order
// total at 2 decimal places, so values survive NUMERIC(12,2) storage intact.
func DiscountedUnitPrice(price, discountPercentage decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(discountPercentage)).Div(hundred).Round(2)
}

// ComputeTotals derives the order totals from line-item snapshots. Shipping is
// free strictly above the 100 threshold, otherwise a flat 10; tax is a flat 8%
// of the discounted total rounded to cents, applied before shipping.
// GrandTotal is the sum of the rounded components, so
// GrandTotal == DiscountedTotal + ShippingCost + Tax holds exactly, before
// and after a database round trip.
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	discounted := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Price.Mul(qty))
		discounted = discounted.Add(item.Total)
	}

	shipping := flatShippingCost
	if discounted.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := discounted.Mul(taxRate).Round(2)

	return Totals{
		Subtotal:        subtotal,
		DiscountedTotal: discounted,
		ShippingCost:    shipping,
		Tax:             tax,
		GrandTotal:      discounted.Add(shipping).Add(tax),
	}
}
