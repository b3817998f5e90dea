package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// loaded preloads items in insertion order together with their product and
// its variants, which the cart needs for repricing.
func (r *GormCartRepository) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Items.Product").
		Preload("Items.Product.Variants")
}

func (r *GormCartRepository) findOne(ctx context.Context, query string, arg any) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.loaded(ctx).Where(query, arg).Order("updated_at DESC").First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByID finds a cart by ID
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUserID finds the most recent cart owned by a user
func (r *GormCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

// FindBySessionID finds the anonymous cart bound to a session
func (r *GormCartRepository) FindBySessionID(ctx context.Context, sessionID string) (*cart.Cart, error) {
	if sessionID == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "session_id = ? AND user_id IS NULL", sessionID)
}

// Save creates or updates a cart and synchronizes its items. Item products are
// read-only here and never written back.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(c).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, len(c.Items))
		for i := range c.Items {
			keep[i] = c.Items[i].ID
		}
		stale := tx.Where("cart_id = ?", c.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}

		for i := range c.Items {
			c.Items[i].CartID = c.ID
			if err := tx.Omit(clause.Associations).Save(&c.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes a cart and its items
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&cart.Cart{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ cart.CartRepository = (*GormCartRepository)(nil)
