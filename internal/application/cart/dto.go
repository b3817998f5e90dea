package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
)

// Owner identifies whose cart an operation targets: the authenticated user
// when UserID is set, otherwise the anonymous session.
type Owner struct {
	UserID    *uuid.UUID
	SessionID string
}

// AddItemRequest adds a product or variant to the cart
type AddItemRequest struct {
	ProductID uuid.UUID  `json:"productId" binding:"required"`
	VariantID *uuid.UUID `json:"variantId"`
	Quantity  int        `json:"quantity" binding:"required,min=1,max=999"`
}

// UpdateItemRequest sets the quantity of a cart line. The quantity must be
// present; zero or less removes the line.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=999"`
}

// ApplyDiscountRequest attaches a discount code
type ApplyDiscountRequest struct {
	Code string `json:"code" binding:"required,discount_code"`
}

// CartProductResponse is the product summary embedded in a cart line
type CartProductResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	ImageURL *string   `json:"imageUrl"`
}

// CartItemResponse represents a cart line in API responses
type CartItemResponse struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	VariantID *uuid.UUID           `json:"variantId"`
	Quantity  int                  `json:"quantity"`
	Price     decimal.Decimal      `json:"price"`
	Product   *CartProductResponse `json:"product,omitempty"`
}

// CartResponse is the authoritative cart snapshot returned by every cart
// endpoint
type CartResponse struct {
	ID             uuid.UUID          `json:"id"`
	Items          []CartItemResponse `json:"items"`
	ItemCount      int                `json:"itemCount"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Tax            decimal.Decimal    `json:"tax"`
	Shipping       decimal.Decimal    `json:"shipping"`
	Total          decimal.Decimal    `json:"total"`
	DiscountCode   *string            `json:"discountCode"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
}

// ImageURLFunc resolves an image storage key to a public URL
type ImageURLFunc func(key string) string

// ToCartResponse converts a domain Cart to CartResponse
func ToCartResponse(c *cart.Cart, imageURL ImageURLFunc) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if p := item.Product; p != nil {
			summary := &CartProductResponse{ID: p.ID, Name: p.Name, Slug: p.Slug}
			if p.ImageKey != "" && imageURL != nil {
				if u := imageURL(p.ImageKey); u != "" {
					summary.ImageURL = &u
				}
			}
			items[i].Product = summary
		}
	}
	return CartResponse{
		ID:             c.ID,
		Items:          items,
		ItemCount:      c.ItemCount(),
		Subtotal:       c.Subtotal,
		Tax:            c.Tax,
		Shipping:       c.Shipping,
		Total:          c.Total,
		DiscountCode:   c.DiscountCode,
		DiscountAmount: c.DiscountAmount,
	}
}
