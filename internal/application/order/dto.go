package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/language"
)

// Viewer is the caller of an order query
type Viewer struct {
	UserID  *uuid.UUID
	IsAdmin bool
}

// CheckoutRequest turns the caller's cart into an order
type CheckoutRequest struct {
	Email           string                 `json:"email" binding:"omitempty,email,max=254"`
	ShippingAddress valueobject.AddressDTO `json:"shippingAddress" binding:"required"`
	// IdempotencyKey deduplicates repeated submissions; set from the
	// Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// UpdateStatusRequest moves an order through its status machine
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled"`
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid shipped delivered cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"orderBy"`
	OrderDir string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	VariantID   *uuid.UUID      `json:"variantId"`
	ProductName string          `json:"productName"`
	VariantName string          `json:"variantName,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     string                 `json:"orderNumber"`
	UserID          *uuid.UUID             `json:"userId"`
	Email           string                 `json:"email"`
	ShippingAddress valueobject.AddressDTO `json:"shippingAddress"`
	Items           []OrderItemResponse    `json:"items"`
	ItemCount       int                    `json:"itemCount"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	Tax             decimal.Decimal        `json:"tax"`
	Shipping        decimal.Decimal        `json:"shipping"`
	Discount        decimal.Decimal        `json:"discount"`
	Total           decimal.Decimal        `json:"total"`
	FormattedTotal  string                 `json:"formattedTotal"`
	Currency        string                 `json:"currency"`
	DiscountCode    *string                `json:"discountCode"`
	Status          string                 `json:"status"`
	PaidAt          *time.Time             `json:"paidAt,omitempty"`
	ShippedAt       *time.Time             `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time             `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time             `json:"cancelledAt,omitempty"`
	CancelReason    string                 `json:"cancelReason,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	// Replayed is true when the response was answered from an earlier
	// submission with the same idempotency key
	Replayed bool `json:"-"`
}

// ToOrderResponse converts a domain Order to OrderResponse, formatting the
// total for locale
func ToOrderResponse(o *order.Order, locale language.Tag) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Email:           o.Email,
		ShippingAddress: o.ShippingAddress.ToDTO(),
		Items:           items,
		ItemCount:       o.ItemCount(),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.Shipping,
		Discount:        o.Discount,
		Total:           o.Total,
		FormattedTotal:  o.Money(o.Total).Format(locale),
		Currency:        o.Currency,
		DiscountCode:    o.DiscountCode,
		Status:          string(o.Status),
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
