package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid checks if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDraft, ProductStatusArchived:
		return true
	}
	return false
}

// Product is the aggregate root of the catalog
type Product struct {
	shared.BaseAggregateRoot
	Name           string           `gorm:"type:varchar(200);not null"`
	Slug           string           `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description    string           `gorm:"type:text"`
	Price          decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	CompareAtPrice *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SKU            string           `gorm:"column:sku;type:varchar(64);index"`
	Stock          int              `gorm:"not null;default:0"`
	Status         ProductStatus    `gorm:"type:varchar(20);not null;default:'active';index"`
	ImageKey       string           `gorm:"type:varchar(500)"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductVariant is a purchasable option of a product (size, color...).
// A nil Price inherits the product price.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name      string           `gorm:"type:varchar(100);not null"`
	SKU       string           `gorm:"column:sku;type:varchar(64)"`
	Price     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Stock     int              `gorm:"not null;default:0"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProduct creates an active product with a slug derived from the name
func NewProduct(name, sku string, price decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if err := validateSKU(sku); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Price:             price,
		SKU:               sku,
		Status:            ProductStatusActive,
	}
	p.Slug = Slugify(name)
	if p.Slug == "" {
		p.Slug = "product-" + p.ID.String()[:8]
	}
	return p, nil
}

// WithSlugSuffix disambiguates a colliding slug: "mug" -> "mug-2"
func (p *Product) WithSlugSuffix(n int) {
	base := Slugify(p.Name)
	if base == "" {
		base = "product-" + p.ID.String()[:8]
	}
	p.Slug = fmt.Sprintf("%s-%d", base, n)
}

// Update updates the product's descriptive fields
func (p *Product) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.touch()
	return nil
}

// SetPricing sets the selling price and optional compare-at price
func (p *Product) SetPricing(price decimal.Decimal, compareAt *decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if compareAt != nil {
		if err := validatePrice(*compareAt); err != nil {
			return err
		}
		if compareAt.LessThan(price) {
			return shared.NewDomainError("INVALID_PRICE", "Compare-at price cannot be lower than price")
		}
	}
	p.Price = price
	p.CompareAtPrice = compareAt
	p.touch()
	return nil
}

// SetSKU sets the stock keeping unit
func (p *Product) SetSKU(sku string) error {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if err := validateSKU(sku); err != nil {
		return err
	}
	p.SKU = sku
	p.touch()
	return nil
}

// SetStock sets the on-hand quantity of the base product
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p.Stock = stock
	p.touch()
	return nil
}

// SetStatus changes the publication status
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid product status: %s", status))
	}
	p.Status = status
	p.touch()
	return nil
}

// SetImageKey records the object storage key of the primary image
func (p *Product) SetImageKey(key string) {
	p.ImageKey = key
	p.touch()
}

// AddVariant appends a variant to the product
func (p *Product) AddVariant(name, sku string, price *decimal.Decimal, stock int) (*ProductVariant, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_VARIANT", "Variant name must be 1-100 characters")
	}
	if price != nil {
		if err := validatePrice(*price); err != nil {
			return nil, err
		}
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	for _, v := range p.Variants {
		if strings.EqualFold(v.Name, name) {
			return nil, shared.NewDomainError("DUPLICATE_VARIANT", fmt.Sprintf("Variant %q already exists", name))
		}
	}

	now := time.Now()
	p.Variants = append(p.Variants, ProductVariant{
		ID:        uuid.New(),
		ProductID: p.ID,
		Name:      name,
		SKU:       strings.ToUpper(strings.TrimSpace(sku)),
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	})
	p.touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// UpdateVariant changes an existing variant in place, keeping its ID so cart
// lines referencing it stay valid
func (p *Product) UpdateVariant(id uuid.UUID, name, sku string, price *decimal.Decimal, stock int) error {
	v := p.FindVariant(id)
	if v == nil {
		return shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_VARIANT", "Variant name must be 1-100 characters")
	}
	if price != nil {
		if err := validatePrice(*price); err != nil {
			return err
		}
	}
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	for _, other := range p.Variants {
		if other.ID != id && strings.EqualFold(other.Name, name) {
			return shared.NewDomainError("DUPLICATE_VARIANT", fmt.Sprintf("Variant %q already exists", name))
		}
	}
	v.Name = name
	v.SKU = strings.ToUpper(strings.TrimSpace(sku))
	v.Price = price
	v.Stock = stock
	v.UpdatedAt = time.Now()
	p.touch()
	return nil
}

// RemoveVariant removes a variant by ID
func (p *Product) RemoveVariant(id uuid.UUID) error {
	for i, v := range p.Variants {
		if v.ID == id {
			p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
			p.touch()
			return nil
		}
	}
	return shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
}

// FindVariant returns the variant with the given ID, or nil
func (p *Product) FindVariant(id uuid.UUID) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// UnitPrice resolves the price of the product or one of its variants
func (p *Product) UnitPrice(variantID *uuid.UUID) (decimal.Decimal, error) {
	if variantID == nil {
		return p.Price, nil
	}
	v := p.FindVariant(*variantID)
	if v == nil {
		return decimal.Zero, shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
	}
	if v.Price != nil {
		return *v.Price, nil
	}
	return p.Price, nil
}

// AvailableStock returns the on-hand quantity of the product or one of its variants
func (p *Product) AvailableStock(variantID *uuid.UUID) (int, error) {
	if variantID == nil {
		return p.Stock, nil
	}
	v := p.FindVariant(*variantID)
	if v == nil {
		return 0, shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
	}
	return v.Stock, nil
}

// EnsurePurchasable checks the product can be sold in the given quantity
func (p *Product) EnsurePurchasable(variantID *uuid.UUID, quantity int) error {
	if p.Status != ProductStatusActive {
		return shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for purchase")
	}
	stock, err := p.AvailableStock(variantID)
	if err != nil {
		return err
	}
	if quantity > stock {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("Only %d of %s in stock", stock, p.Name))
	}
	return nil
}

// DecrementStock removes sold units from the product or variant
func (p *Product) DecrementStock(variantID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if variantID == nil {
		if p.Stock < quantity {
			return shared.ErrInsufficientStock
		}
		p.Stock -= quantity
		p.touch()
		return nil
	}
	v := p.FindVariant(*variantID)
	if v == nil {
		return shared.NewDomainError("VARIANT_NOT_FOUND", "Variant not found")
	}
	if v.Stock < quantity {
		return shared.ErrInsufficientStock
	}
	v.Stock -= quantity
	v.UpdatedAt = time.Now()
	p.touch()
	return nil
}

// IsActive returns true if the product is visible to shoppers
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// InStock reports whether any unit of the product or its variants is on hand
func (p *Product) InStock() bool {
	if p.Stock > 0 {
		return true
	}
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return true
		}
	}
	return false
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot have more than 2 decimal places")
	}
	return nil
}

func validateSKU(sku string) error {
	if len(sku) > 64 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}
