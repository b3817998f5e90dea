package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Filter keys understood by OrderRepository.FindAll and Count
const (
	FilterStatus = "status"
	FilterUserID = "user_id"
)

// ErrOrderNumberTaken is returned by Save when another order already holds
// the order number
var ErrOrderNumberTaken = shared.NewDomainError("ORDER_NUMBER_TAKEN", "Order number is already in use")

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its human-readable number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindAll finds orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates an order. A duplicate order number yields
	// ErrOrderNumberTaken.
	Save(ctx context.Context, order *Order) error

	// Delete deletes an order and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// GenerateOrderNumber returns the next unused order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
