package order

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states with no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderItem is a line of an order with the product data captured at checkout
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   *uuid.UUID      `gorm:"type:uuid"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	VariantName string          `gorm:"type:varchar(100)"`
	SKU         string          `gorm:"column:sku;type:varchar(64)"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// Order is a placed order. Its totals are frozen at checkout.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string              `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID          *uuid.UUID          `gorm:"type:uuid;index"`
	Email           string              `gorm:"type:varchar(254);not null"`
	ShippingAddress valueobject.Address `gorm:"type:jsonb"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Tax             decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Shipping        decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Discount        decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Currency        string              `gorm:"type:varchar(3);not null;default:'USD'"`
	DiscountCode    *string             `gorm:"type:varchar(50)"`
	Status          OrderStatus         `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// PlaceOrder builds a pending order from a priced cart. Product names are
// taken from the items' preloaded products.
func PlaceOrder(orderNumber string, c *cart.Cart, email string, address valueobject.Address, currency valueobject.Currency) (*Order, error) {
	if c.IsEmpty() {
		return nil, shared.ErrEmptyCart
	}
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid email is required")
	}
	if address.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		UserID:            c.UserID,
		Email:             email,
		ShippingAddress:   address,
		Currency:          string(currency),
		Status:            OrderStatusPending,
	}

	now := time.Now()
	for _, ci := range c.Items {
		if ci.Product == nil {
			return nil, shared.NewDomainError("INVALID_STATE", "Cart item is missing its product")
		}
		item := OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   ci.ProductID,
			VariantID:   ci.VariantID,
			ProductName: ci.Product.Name,
			SKU:         ci.Product.SKU,
			Quantity:    ci.Quantity,
			UnitPrice:   ci.Price,
			LineTotal:   ci.LineTotal().Round(pricing.CurrencyPlaces),
			CreatedAt:   now,
		}
		if ci.VariantID != nil {
			if v := ci.Product.FindVariant(*ci.VariantID); v != nil {
				item.VariantName = v.Name
				if v.SKU != "" {
					item.SKU = v.SKU
				}
			}
		}
		o.Items = append(o.Items, item)
	}

	if c.HasDiscount() {
		code := *c.DiscountCode
		o.DiscountCode = &code
	}
	o.Subtotal = c.Subtotal
	o.Tax = c.Tax
	o.Shipping = c.Shipping
	o.Discount = c.DiscountAmount
	o.Total = c.Total
	return o, nil
}

// Totals returns the frozen price breakdown
func (o *Order) Totals() pricing.OrderTotals {
	return pricing.OrderTotals{
		Subtotal: o.Subtotal,
		Tax:      o.Tax,
		Shipping: o.Shipping,
		Discount: o.Discount,
		Total:    o.Total,
	}
}

// TransitionTo moves the order through its status machine
func (o *Order) TransitionTo(target OrderStatus, reason string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid order status: %s", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}

	now := time.Now()
	switch target {
	case OrderStatusPaid:
		o.PaidAt = &now
	case OrderStatusShipped:
		o.ShippedAt = &now
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = strings.TrimSpace(reason)
	}
	o.Status = target
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// IsOwnedBy reports whether the order belongs to the user
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// CanDelete reports whether the order may be removed
func (o *Order) CanDelete() bool {
	return o.Status == OrderStatusCancelled
}

// ItemCount returns the sum of line quantities
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Money wraps an amount of this order in its currency
func (o *Order) Money(amount decimal.Decimal) valueobject.Money {
	return valueobject.MustMoney(amount, valueobject.Currency(o.Currency))
}
