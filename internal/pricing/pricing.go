// Package pricing computes cart and checkout totals. Every function is a pure
// function of its arguments; nothing here reads the catalog.
package pricing

import (
	"krishak/internal/models"

	"github.com/shopspring/decimal"
)

// Line is anything that can be priced: a unit price and a quantity.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Policy holds the shipping rule.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	FlatFee               decimal.Decimal
}

// DefaultPolicy is free shipping strictly above 500, otherwise a flat 40.
func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatFee:               decimal.NewFromInt(40),
	}
}

// Quote is the priced summary of a set of lines.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal is the sum of price times quantity over lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// ShippingCost is zero when subtotal is strictly greater than the threshold.
func (p Policy) ShippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

// Total is Subtotal plus ShippingCost of that subtotal.
func (p Policy) Total(lines []Line) decimal.Decimal {
	return p.Quote(lines).Total
}

// Quote prices lines in one pass.
func (p Policy) Quote(lines []Line) Quote {
	subtotal := Subtotal(lines)
	shipping := p.ShippingCost(subtotal)
	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

// FromCart converts cart items into priced lines using their snapshot prices.
func FromCart(items []models.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{Price: it.Price, Quantity: it.Quantity})
	}
	return lines
}
