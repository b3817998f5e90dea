package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByID finds a cart with its items and their products
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// FindByUserID finds the cart owned by a user
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// FindBySessionID finds the anonymous cart bound to a session
	FindBySessionID(ctx context.Context, sessionID string) (*Cart, error)

	// Save creates or updates a cart and synchronizes its items
	Save(ctx context.Context, cart *Cart) error

	// Delete deletes a cart and its items
	Delete(ctx context.Context, id uuid.UUID) error
}

// DiscountCodeRepository defines the interface for discount code persistence
type DiscountCodeRepository interface {
	// FindByID finds a discount code by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DiscountCode, error)

	// FindByCode finds a discount code by its normalized code
	FindByCode(ctx context.Context, code string) (*DiscountCode, error)

	// FindAll finds discount codes matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]DiscountCode, error)

	// Count counts discount codes matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a discount code
	Save(ctx context.Context, code *DiscountCode) error

	// Delete deletes a discount code
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementUsage atomically counts one redemption, failing when the usage
	// limit has been reached
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}
