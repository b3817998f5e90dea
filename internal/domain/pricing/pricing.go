// Package pricing computes order totals from line items.
//
// All arithmetic is exact decimal. Values are rounded to currency precision
// only when an OrderTotals is produced.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the precision totals are rounded to
const CurrencyPlaces int32 = 2

// LineItem is a priced quantity of one catalog entry.
// UnitPrice must be non-negative and Quantity positive; callers validate.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Amount returns UnitPrice × Quantity without rounding
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Config holds the store-wide pricing parameters
type Config struct {
	// TaxRate is a fraction in [0,1)
	TaxRate decimal.Decimal
	// ShippingRate is the flat shipping charge
	ShippingRate decimal.Decimal
	// FreeShippingThreshold waives shipping when subtotal reaches it. Zero disables.
	FreeShippingThreshold decimal.Decimal
}

// Validate checks the configuration ranges
func (c Config) Validate() error {
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate must be in [0,1), got %s", c.TaxRate)
	}
	if c.ShippingRate.IsNegative() {
		return fmt.Errorf("shipping rate cannot be negative, got %s", c.ShippingRate)
	}
	if c.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("free shipping threshold cannot be negative, got %s", c.FreeShippingThreshold)
	}
	return nil
}

// OrderTotals is the derived price breakdown of a cart or order.
// Total = Subtotal + Tax + Shipping - Discount and never negative.
type OrderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Subtotal returns the exact sum of the line item amounts
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount())
	}
	return sum
}

// Shipping returns the shipping charge for an exact subtotal
func (c Config) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if c.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.ShippingRate
}

// ClampDiscount bounds a requested discount to [0, subtotal]
func ClampDiscount(requested, subtotal decimal.Decimal) decimal.Decimal {
	if requested.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(requested, subtotal)
}

// ComputeTotals prices the items under cfg with the requested discount.
// Components are rounded half away from zero and Total is derived from the
// rounded components so the breakdown always adds up.
func ComputeTotals(items []LineItem, cfg Config, discount decimal.Decimal) OrderTotals {
	subtotal := Subtotal(items)
	tax := subtotal.Mul(cfg.TaxRate)
	shipping := cfg.Shipping(subtotal)
	applied := ClampDiscount(discount, subtotal)

	totals := OrderTotals{
		Subtotal: subtotal.Round(CurrencyPlaces),
		Tax:      tax.Round(CurrencyPlaces),
		Shipping: shipping.Round(CurrencyPlaces),
		Discount: applied.Round(CurrencyPlaces),
	}
	total := totals.Subtotal.Add(totals.Tax).Add(totals.Shipping).Sub(totals.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	totals.Total = total
	return totals
}
