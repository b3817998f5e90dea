package cart

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// DiscountType determines how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is known
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

var discountCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,50}$`)

// NormalizeCode canonicalizes user input into the stored code form
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether code is well formed once normalized
func IsValidCode(code string) bool {
	return discountCodePattern.MatchString(NormalizeCode(code))
}

// DiscountCode is a redeemable promotion
type DiscountCode struct {
	shared.BaseAggregateRoot
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type        DiscountType    `gorm:"type:varchar(20);not null"`
	Value       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MinSubtotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ExpiresAt   *time.Time
	Active      bool `gorm:"not null"`
	UsageLimit  *int
	UsedCount   int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DiscountCode) TableName() string {
	return "discount_codes"
}

// NewDiscountCode creates an active discount code
func NewDiscountCode(code string, discountType DiscountType, value decimal.Decimal) (*DiscountCode, error) {
	code = NormalizeCode(code)
	if !discountCodePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_CODE", "Code must be 3-50 letters, digits, underscores or hyphens")
	}
	if err := validateDiscountValue(discountType, value); err != nil {
		return nil, err
	}
	return &DiscountCode{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Type:              discountType,
		Value:             value,
		MinSubtotal:       decimal.Zero,
		Active:            true,
	}, nil
}

// SetRules configures the optional redemption constraints
func (d *DiscountCode) SetRules(minSubtotal decimal.Decimal, expiresAt *time.Time, usageLimit *int) error {
	if minSubtotal.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Minimum subtotal cannot be negative")
	}
	if usageLimit != nil && *usageLimit <= 0 {
		return shared.NewDomainError("INVALID_DISCOUNT", "Usage limit must be positive")
	}
	d.MinSubtotal = minSubtotal
	d.ExpiresAt = expiresAt
	d.UsageLimit = usageLimit
	d.touch()
	return nil
}

// SetActive enables or disables redemption
func (d *DiscountCode) SetActive(active bool) {
	d.Active = active
	d.touch()
}

// Validate checks that the code can be redeemed against subtotal at now
func (d *DiscountCode) Validate(subtotal decimal.Decimal, now time.Time) error {
	switch {
	case !d.Active:
		return shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code is not active")
	case d.ExpiresAt != nil && !now.Before(*d.ExpiresAt):
		return shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code has expired")
	case d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit:
		return shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code usage limit reached")
	case subtotal.LessThan(d.MinSubtotal):
		return shared.NewDomainError(shared.ErrInvalidDiscount.Code,
			fmt.Sprintf("Discount code requires a subtotal of at least %s", d.MinSubtotal.StringFixed(2)))
	}
	return nil
}

// AmountFor returns the requested discount for a subtotal. The result is not
// clamped; the pricing engine bounds it by the subtotal.
func (d *DiscountCode) AmountFor(subtotal decimal.Decimal) decimal.Decimal {
	if d.Type == DiscountTypePercentage {
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	}
	return d.Value
}

// RecordUsage counts one redemption
func (d *DiscountCode) RecordUsage() error {
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code usage limit reached")
	}
	d.UsedCount++
	d.touch()
	return nil
}

func (d *DiscountCode) touch() {
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

func validateDiscountValue(t DiscountType, value decimal.Decimal) error {
	if !t.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT", fmt.Sprintf("Invalid discount type: %s", t))
	}
	if !value.IsPositive() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount value must be positive")
	}
	if t == DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Percentage discount cannot exceed 100")
	}
	return nil
}
