package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxItemQuantity caps the quantity of a single cart line
const MaxItemQuantity = 999

// Cart is a shopper's persisted cart. It is owned by a user when
// authenticated, otherwise by an anonymous session.
type Cart struct {
	shared.BaseAggregateRoot
	UserID         *uuid.UUID      `gorm:"type:uuid;index"`
	SessionID      string          `gorm:"type:varchar(64);index"`
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	DiscountCode   *string         `gorm:"type:varchar(50)"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Shipping       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a cart. Price is the unit price resolved from the
// catalog the last time the cart was priced.
type CartItem struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	CartID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID       `gorm:"type:uuid"`
	Quantity  int              `gorm:"not null"`
	Price     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Product   *catalog.Product `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal returns Price × Quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) sameLine(productID uuid.UUID, variantID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil || variantID == nil {
		return i.VariantID == nil && variantID == nil
	}
	return *i.VariantID == *variantID
}

// NewCart creates an empty cart for a user or an anonymous session
func NewCart(userID *uuid.UUID, sessionID string) (*Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if userID == nil && sessionID == "" {
		return nil, shared.NewDomainError("INVALID_CART_OWNER", "Cart requires a user or a session")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		SessionID:         sessionID,
		Items:             []CartItem{},
		DiscountAmount:    decimal.Zero,
		Subtotal:          decimal.Zero,
		Tax:               decimal.Zero,
		Shipping:          decimal.Zero,
		Total:             decimal.Zero,
	}, nil
}

// AddItem adds quantity of a product (or variant) to the cart, merging with an
// existing line for the same product and variant. Stock is checked against the
// merged quantity.
func (c *Cart) AddItem(product *catalog.Product, variantID *uuid.UUID, quantity int) (*CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	for i := range c.Items {
		if c.Items[i].sameLine(product.ID, variantID) {
			merged := c.Items[i].Quantity + quantity
			if err := validateQuantity(merged); err != nil {
				return nil, err
			}
			if err := product.EnsurePurchasable(variantID, merged); err != nil {
				return nil, err
			}
			unitPrice, err := product.UnitPrice(variantID)
			if err != nil {
				return nil, err
			}
			c.Items[i].Quantity = merged
			c.Items[i].Price = unitPrice
			c.Items[i].Product = product
			c.Items[i].UpdatedAt = time.Now()
			c.touch()
			return &c.Items[i], nil
		}
	}

	if err := product.EnsurePurchasable(variantID, quantity); err != nil {
		return nil, err
	}
	unitPrice, err := product.UnitPrice(variantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c.Items = append(c.Items, CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: product.ID,
		VariantID: variantID,
		Quantity:  quantity,
		Price:     unitPrice,
		Product:   product,
		CreatedAt: now,
		UpdatedAt: now,
	})
	c.touch()
	return &c.Items[len(c.Items)-1], nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity of zero or less
// removes the line.
func (c *Cart) UpdateItemQuantity(itemID uuid.UUID, product *catalog.Product, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(itemID)
	}
	item := c.FindItem(itemID)
	if item == nil {
		return shared.NewDomainError(shared.ErrNotFound.Code, "Cart item not found")
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if err := product.EnsurePurchasable(item.VariantID, quantity); err != nil {
		return err
	}
	item.Quantity = quantity
	item.Product = product
	item.UpdatedAt = time.Now()
	c.touch()
	return nil
}

// RemoveItem removes a line from the cart
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return nil
		}
	}
	return shared.NewDomainError(shared.ErrNotFound.Code, "Cart item not found")
}

// FindItem returns the line with the given ID, or nil
func (c *Cart) FindItem(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Clear empties the cart and drops any discount
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.DiscountCode = nil
	c.touch()
}

// ApplyDiscount attaches a discount code after checking it against the
// current subtotal. The amount is resolved by Reprice.
func (c *Cart) ApplyDiscount(code *DiscountCode, now time.Time) error {
	if c.IsEmpty() {
		return shared.ErrEmptyCart
	}
	if err := code.Validate(c.ExactSubtotal(), now); err != nil {
		return err
	}
	normalized := code.Code
	c.DiscountCode = &normalized
	c.touch()
	return nil
}

// RemoveDiscount detaches the discount code
func (c *Cart) RemoveDiscount() {
	c.DiscountCode = nil
	c.DiscountAmount = decimal.Zero
	c.touch()
}

// HasDiscount returns true if a discount code is attached
func (c *Cart) HasDiscount() bool {
	return c.DiscountCode != nil && *c.DiscountCode != ""
}

// LineItems converts the cart lines for the pricing engine
func (c *Cart) LineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, pricing.LineItem{UnitPrice: item.Price, Quantity: item.Quantity})
	}
	return items
}

// ExactSubtotal returns the unrounded sum of the cart lines
func (c *Cart) ExactSubtotal() decimal.Decimal {
	return pricing.Subtotal(c.LineItems())
}

// Reprice recomputes the stored totals. The requested discount is clamped by
// the pricing engine and the applied amount stored in DiscountAmount.
func (c *Cart) Reprice(cfg pricing.Config, requestedDiscount decimal.Decimal) pricing.OrderTotals {
	if !c.HasDiscount() {
		requestedDiscount = decimal.Zero
	}
	totals := pricing.ComputeTotals(c.LineItems(), cfg, requestedDiscount)
	c.Subtotal = totals.Subtotal
	c.Tax = totals.Tax
	c.Shipping = totals.Shipping
	c.DiscountAmount = totals.Discount
	c.Total = totals.Total
	return totals
}

// SyncWithCatalog re-reads unit prices from the loaded item products and
// drops lines whose product is missing, no longer active or whose variant was
// removed. Reports the number of dropped lines and whether anything changed.
func (c *Cart) SyncWithCatalog() (removed int, changed bool) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.Product == nil || !item.Product.IsActive() {
			removed++
			continue
		}
		price, err := item.Product.UnitPrice(item.VariantID)
		if err != nil {
			removed++
			continue
		}
		if !price.Equal(item.Price) {
			item.Price = price
			item.UpdatedAt = time.Now()
			changed = true
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if removed > 0 || changed {
		c.touch()
		return removed, true
	}
	return 0, false
}

// ItemCount returns the sum of line quantities
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AssignUser attaches an anonymous cart to a user
func (c *Cart) AssignUser(userID uuid.UUID) {
	c.UserID = &userID
	c.touch()
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > MaxItemQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity exceeds the per-item limit")
	}
	return nil
}
