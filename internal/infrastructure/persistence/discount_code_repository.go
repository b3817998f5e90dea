package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDiscountCodeRepository implements DiscountCodeRepository using GORM
type GormDiscountCodeRepository struct {
	db *gorm.DB
}

// NewGormDiscountCodeRepository creates a new GormDiscountCodeRepository
func NewGormDiscountCodeRepository(db *gorm.DB) *GormDiscountCodeRepository {
	return &GormDiscountCodeRepository{db: db}
}

// FindByID finds a discount code by ID
func (r *GormDiscountCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.DiscountCode, error) {
	var code cart.DiscountCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

// FindByCode finds a discount code by its code, case-insensitively
func (r *GormDiscountCodeRepository) FindByCode(ctx context.Context, code string) (*cart.DiscountCode, error) {
	var dc cart.DiscountCode
	if err := r.db.WithContext(ctx).Where("code = ?", cart.NormalizeCode(code)).First(&dc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &dc, nil
}

// FindAll finds discount codes matching the filter
func (r *GormDiscountCodeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]cart.DiscountCode, error) {
	var codes []cart.DiscountCode
	query := r.applyFilter(r.db.WithContext(ctx).Model(&cart.DiscountCode{}), filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, DiscountCodeSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if err := query.Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Count counts discount codes matching the filter
func (r *GormDiscountCodeRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&cart.DiscountCode{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormDiscountCodeRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("code LIKE ?", "%"+cart.NormalizeCode(search)+"%")
	}
	if active, ok := filter.Filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}
	return query
}

// Save creates or updates a discount code
func (r *GormDiscountCodeRepository) Save(ctx context.Context, code *cart.DiscountCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

// Delete deletes a discount code
func (r *GormDiscountCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&cart.DiscountCode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IncrementUsage counts one redemption. The UPDATE only matches active codes
// still under their usage limit.
func (r *GormDiscountCodeRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&cart.DiscountCode{}).
		Where("id = ? AND active = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id, true).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code is no longer available")
}

var _ cart.DiscountCodeRepository = (*GormDiscountCodeRepository)(nil)
