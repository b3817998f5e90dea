package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateDiscountRequest creates a discount code
type CreateDiscountRequest struct {
	Code        string           `json:"code" binding:"required,discount_code"`
	Type        string           `json:"type" binding:"required,oneof=percentage fixed"`
	Value       decimal.Decimal  `json:"value"`
	MinSubtotal *decimal.Decimal `json:"minSubtotal"`
	ExpiresAt   *time.Time       `json:"expiresAt"`
	UsageLimit  *int             `json:"usageLimit" binding:"omitempty,min=1"`
	Active      *bool            `json:"active"`
}

// DiscountListFilter represents filter options for the discount code list
type DiscountListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// DiscountResponse represents a discount code in API responses
type DiscountResponse struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"minSubtotal"`
	ExpiresAt   *time.Time      `json:"expiresAt"`
	Active      bool            `json:"active"`
	UsageLimit  *int            `json:"usageLimit"`
	UsedCount   int             `json:"usedCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToDiscountResponse converts a domain DiscountCode to DiscountResponse
func ToDiscountResponse(d *cart.DiscountCode) DiscountResponse {
	return DiscountResponse{
		ID:          d.ID,
		Code:        d.Code,
		Type:        string(d.Type),
		Value:       d.Value,
		MinSubtotal: d.MinSubtotal,
		ExpiresAt:   d.ExpiresAt,
		Active:      d.Active,
		UsageLimit:  d.UsageLimit,
		UsedCount:   d.UsedCount,
		CreatedAt:   d.CreatedAt,
	}
}

// DiscountService manages discount codes for administrators
type DiscountService struct {
	repo   cart.DiscountCodeRepository
	logger *zap.Logger
}

// NewDiscountService creates a new DiscountService
func NewDiscountService(repo cart.DiscountCodeRepository, logger *zap.Logger) *DiscountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscountService{repo: repo, logger: logger}
}

// Create adds a discount code. Codes are unique after normalization.
func (s *DiscountService) Create(ctx context.Context, req CreateDiscountRequest) (*DiscountResponse, error) {
	code, err := cart.NewDiscountCode(req.Code, cart.DiscountType(req.Type), req.Value)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.FindByCode(ctx, code.Code)
	switch {
	case err == nil:
		return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "Discount code already exists")
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	minSubtotal := decimal.Zero
	if req.MinSubtotal != nil {
		minSubtotal = *req.MinSubtotal
	}
	if err := code.SetRules(minSubtotal, req.ExpiresAt, req.UsageLimit); err != nil {
		return nil, err
	}
	if req.Active != nil && !*req.Active {
		code.SetActive(false)
	}

	if err := s.repo.Save(ctx, code); err != nil {
		return nil, err
	}
	s.logger.Info("discount code created",
		zap.String("code", code.Code),
		zap.String("type", string(code.Type)))

	resp := ToDiscountResponse(code)
	return &resp, nil
}

// List returns a page of discount codes ordered by code
func (s *DiscountService) List(ctx context.Context, filter DiscountListFilter) (*shared.Paginated[DiscountResponse], error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "code",
		OrderDir: "asc",
		Search:   filter.Search,
	}.Normalize(100)
	if filter.Active != nil {
		domainFilter.Filters["active"] = *filter.Active
	}

	codes, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]DiscountResponse, len(codes))
	for i := range codes {
		items[i] = ToDiscountResponse(&codes[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Delete removes a discount code. Carts still holding it drop it on their
// next reprice.
func (s *DiscountService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("discount code deleted", zap.String("id", id.String()))
	return nil
}
