package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultOrderPrefix starts every order number, e.g. ORD-2026-00042.
const DefaultOrderPrefix = "ORD"

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db     *gorm.DB
	prefix string
	now    func() time.Time
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db, prefix: DefaultOrderPrefix, now: time.Now}
}

// WithPrefix returns a copy of the repository generating numbers with prefix
func (r *GormOrderRepository) WithPrefix(prefix string) *GormOrderRepository {
	clone := *r
	if prefix != "" {
		clone.prefix = strings.ToUpper(prefix)
	}
	return &clone
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.withItems(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := r.withItems(ctx).Where("order_number = ?", strings.ToUpper(orderNumber)).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyFilter(r.withItems(ctx).Model(&order.Order{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&order.Order{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(order_number) LIKE ? OR LOWER(email) LIKE ?)", pattern, pattern)
	}
	if status, ok := stringValue(filter.Filters[order.FilterStatus]); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	switch v := filter.Filters[order.FilterUserID].(type) {
	case uuid.UUID:
		query = query.Where("user_id = ?", v)
	case *uuid.UUID:
		if v != nil {
			query = query.Where("user_id = ?", *v)
		}
	}
	return query
}

// Save creates or updates an order and synchronizes its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(o).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return order.ErrOrderNumberTaken
			}
			return err
		}

		keep := make([]uuid.UUID, len(o.Items))
		for i := range o.Items {
			keep[i] = o.Items[i].ID
		}
		stale := tx.Where("order_id = ?", o.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&order.OrderItem{}).Error; err != nil {
			return err
		}

		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			if err := tx.Save(&o.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&order.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GenerateOrderNumber returns PREFIX-YYYY-NNNNN, one past the highest number
// issued this year. The sequence part is zero padded to five digits and grows
// beyond that, so numbers are compared by length first. Two concurrent
// checkouts can get the same number; the unique index rejects the second.
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", r.prefix, r.now().Year())

	var last order.Order
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("LENGTH(order_number) DESC, order_number DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	next := 1
	if err == nil {
		var n int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(last.OrderNumber, prefix), "%d", &n); scanErr == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

var _ order.OrderRepository = (*GormOrderRepository)(nil)
