package cart

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repricer brings a loaded cart up to date with the catalog and its discount
// code, then recomputes the totals with the pricing engine. Checkout uses the
// same Repricer so an order is priced exactly like the cart the shopper saw.
type Repricer struct {
	cfg pricing.Config
	now func() time.Time
}

// NewRepricer creates a Repricer for the store pricing configuration
func NewRepricer(cfg pricing.Config) *Repricer {
	return &Repricer{cfg: cfg, now: time.Now}
}

// Config returns the pricing configuration
func (r *Repricer) Config() pricing.Config {
	return r.cfg
}

// RepriceResult reports what a reprice changed
type RepriceResult struct {
	Totals pricing.OrderTotals
	// Changed is true when lines, prices, the discount or totals moved
	Changed bool
	// RemovedItems counts lines dropped because the product is gone
	RemovedItems int
	// Discount is the code still applied after repricing, nil for none
	Discount *cart.DiscountCode
	// DroppedDiscount holds the reason a previously applied code was removed
	DroppedDiscount error
}

// Reprice refreshes c in place. A discount code that no longer validates is
// removed from the cart and reported in DroppedDiscount rather than failing.
func (r *Repricer) Reprice(ctx context.Context, c *cart.Cart, discounts cart.DiscountCodeRepository) (RepriceResult, error) {
	before := totalsOf(c)

	var result RepriceResult
	result.RemovedItems, result.Changed = c.SyncWithCatalog()

	requested := decimal.Zero
	if c.HasDiscount() {
		code, err := discounts.FindByCode(ctx, *c.DiscountCode)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			result.DroppedDiscount = shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code no longer exists")
		case err != nil:
			return RepriceResult{}, err
		default:
			if verr := code.Validate(c.ExactSubtotal(), r.now()); verr != nil {
				result.DroppedDiscount = verr
			} else {
				result.Discount = code
				requested = code.AmountFor(c.ExactSubtotal())
			}
		}
		if result.DroppedDiscount != nil {
			c.RemoveDiscount()
			result.Changed = true
		}
	}

	result.Totals = c.Reprice(r.cfg, requested)
	if !sameTotals(before, result.Totals) {
		result.Changed = true
	}
	return result, nil
}

func totalsOf(c *cart.Cart) pricing.OrderTotals {
	return pricing.OrderTotals{
		Subtotal: c.Subtotal,
		Tax:      c.Tax,
		Shipping: c.Shipping,
		Discount: c.DiscountAmount,
		Total:    c.Total,
	}
}

func sameTotals(a, b pricing.OrderTotals) bool {
	return a.Subtotal.Equal(b.Subtotal) &&
		a.Tax.Equal(b.Tax) &&
		a.Shipping.Equal(b.Shipping) &&
		a.Discount.Equal(b.Discount) &&
		a.Total.Equal(b.Total)
}
