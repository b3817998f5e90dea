// Package cartstate mirrors a server-persisted cart on the client side.
//
// A Controller issues one remote call per operation and replaces its local
// copy of the cart with the snapshot the server returns. Loading and error
// state are tracked for the latest operation only: operations are not
// sequenced, so a call that settles late overwrites the state left by a call
// that settled before it.
package cartstate

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartProduct is the product summary embedded in a cart line
type CartProduct struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	ImageURL *string   `json:"imageUrl"`
}

// CartItem is one line of a cart snapshot
type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	VariantID *uuid.UUID      `json:"variantId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *CartProduct    `json:"product,omitempty"`
}

// CartSnapshot is the server-authoritative cart
type CartSnapshot struct {
	ID             uuid.UUID       `json:"id"`
	Items          []CartItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Shipping       decimal.Decimal `json:"shipping"`
	Total          decimal.Decimal `json:"total"`
	DiscountCode   *string         `json:"discountCode"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// ItemCount returns the sum of the line quantities
func (s *CartSnapshot) ItemCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Clone returns a deep copy
func (s *CartSnapshot) Clone() *CartSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.DiscountCode = clonePtr(s.DiscountCode)
	if s.Items != nil {
		out.Items = make([]CartItem, len(s.Items))
		for i, item := range s.Items {
			item.VariantID = clonePtr(item.VariantID)
			if item.Product != nil {
				p := *item.Product
				p.ImageURL = clonePtr(p.ImageURL)
				item.Product = &p
			}
			out.Items[i] = item
		}
	}
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// State is what consumers of a Controller observe
type State struct {
	// Cart is nil before the first successful fetch and after a clear
	Cart      *CartSnapshot
	IsLoading bool
	// Error is a human-readable message of the last failed operation
	Error     string
	ErrorKind ErrorKind
}

func (s State) clone() State {
	s.Cart = s.Cart.Clone()
	return s
}
