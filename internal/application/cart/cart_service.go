package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Cart operation names reported to Metrics
const (
	OpAdd            = "add"
	OpUpdate         = "update"
	OpRemove         = "remove"
	OpClear          = "clear"
	OpApplyDiscount  = "apply_discount"
	OpRemoveDiscount = "remove_discount"
)

// Metrics receives cart business events
type Metrics interface {
	CartOperation(ctx context.Context, op string, err error)
	DiscountRejected(ctx context.Context, reason string)
}

type noopMetrics struct{}

func (noopMetrics) CartOperation(context.Context, string, error) {}
func (noopMetrics) DiscountRejected(context.Context, string)     {}

// CartService handles the server-side cart
type CartService struct {
	cartRepo     cart.CartRepository
	productRepo  catalog.ProductRepository
	discountRepo cart.DiscountCodeRepository
	repricer     *Repricer
	imageURL     ImageURLFunc
	metrics      Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// CartServiceOption configures a CartService
type CartServiceOption func(*CartService)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) CartServiceOption {
	return func(s *CartService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) CartServiceOption {
	return func(s *CartService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithImageURL sets the resolver for product image URLs in cart responses
func WithImageURL(fn ImageURLFunc) CartServiceOption {
	return func(s *CartService) {
		s.imageURL = fn
	}
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	discountRepo cart.DiscountCodeRepository,
	repricer *Repricer,
	opts ...CartServiceOption,
) *CartService {
	s := &CartService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		discountRepo: discountRepo,
		repricer:     repricer,
		metrics:      noopMetrics{},
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the owner's cart, repriced against the current catalog.
// An owner without a cart gets an empty, unsaved cart.
func (s *CartService) Get(ctx context.Context, owner Owner) (*CartResponse, error) {
	c, found, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !found {
		return s.toResponse(c), nil
	}

	result, err := s.reprice(ctx, c)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		if err := s.cartRepo.Save(ctx, c); err != nil {
			return nil, err
		}
	}
	return s.toResponse(c), nil
}

// AddItem adds a product or variant, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, owner Owner, req AddItemRequest) (resp *CartResponse, err error) {
	defer func() { s.metrics.CartOperation(ctx, OpAdd, err) }()

	if req.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Product not found")
		}
		return nil, err
	}

	c, _, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if _, err := c.AddItem(product, req.VariantID, req.Quantity); err != nil {
		return nil, err
	}
	return s.saveRepriced(ctx, c)
}

// UpdateItem sets the quantity of a line. A quantity of zero or less removes
// the line.
func (s *CartService) UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, req UpdateItemRequest) (resp *CartResponse, err error) {
	if req.Quantity == nil {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity is required")
	}
	quantity := *req.Quantity
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, itemID)
	}
	defer func() { s.metrics.CartOperation(ctx, OpUpdate, err) }()

	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	item := c.FindItem(itemID)
	if item == nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Cart item not found")
	}

	product := item.Product
	if product == nil {
		if product, err = s.productRepo.FindByID(ctx, item.ProductID); err != nil {
			return nil, err
		}
	}
	if err := c.UpdateItemQuantity(itemID, product, quantity); err != nil {
		return nil, err
	}
	return s.saveRepriced(ctx, c)
}

// RemoveItem removes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (resp *CartResponse, err error) {
	defer func() { s.metrics.CartOperation(ctx, OpRemove, err) }()

	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(itemID); err != nil {
		return nil, err
	}
	return s.saveRepriced(ctx, c)
}

// Clear deletes the owner's cart. Clearing a missing cart is not an error.
func (s *CartService) Clear(ctx context.Context, owner Owner) (err error) {
	defer func() { s.metrics.CartOperation(ctx, OpClear, err) }()

	c, found, err := s.load(ctx, owner)
	if err != nil || !found {
		return err
	}
	if err := s.cartRepo.Delete(ctx, c.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return nil
}

// ApplyDiscount validates and attaches a discount code
func (s *CartService) ApplyDiscount(ctx context.Context, owner Owner, req ApplyDiscountRequest) (resp *CartResponse, err error) {
	defer func() { s.metrics.CartOperation(ctx, OpApplyDiscount, err) }()

	c, err := s.existing(ctx, owner)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrEmptyCart
		}
		return nil, err
	}
	if _, err := s.reprice(ctx, c); err != nil {
		return nil, err
	}

	code, err := s.discountRepo.FindByCode(ctx, cart.NormalizeCode(req.Code))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.metrics.DiscountRejected(ctx, "unknown_code")
			return nil, shared.NewDomainError(shared.ErrInvalidDiscount.Code, "Discount code not found")
		}
		return nil, err
	}
	if err := c.ApplyDiscount(code, s.now()); err != nil {
		s.metrics.DiscountRejected(ctx, "ineligible")
		return nil, err
	}
	return s.saveRepriced(ctx, c)
}

// RemoveDiscount detaches the discount code
func (s *CartService) RemoveDiscount(ctx context.Context, owner Owner) (resp *CartResponse, err error) {
	defer func() { s.metrics.CartOperation(ctx, OpRemoveDiscount, err) }()

	c, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.RemoveDiscount()
	return s.saveRepriced(ctx, c)
}

// AdoptSessionCart hands an anonymous session cart to a user who just signed
// in. A user who already owns a cart keeps it and the session cart is left
// untouched. Returns true when the session cart was adopted.
func (s *CartService) AdoptSessionCart(ctx context.Context, userID uuid.UUID, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	if _, err := s.cartRepo.FindByUserID(ctx, userID); err == nil {
		return false, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	c, err := s.cartRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	c.AssignUser(userID)
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return false, err
	}
	s.logger.Info("session cart adopted",
		zap.String("cart_id", c.ID.String()),
		zap.String("user_id", userID.String()))
	return true, nil
}

// load finds the owner's cart, or builds a new unsaved one when none exists
func (s *CartService) load(ctx context.Context, owner Owner) (*cart.Cart, bool, error) {
	c, err := s.find(ctx, owner)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	c, err = cart.NewCart(owner.UserID, owner.SessionID)
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// existing finds the owner's cart, failing with ErrNotFound when none exists
func (s *CartService) existing(ctx context.Context, owner Owner) (*cart.Cart, error) {
	c, err := s.find(ctx, owner)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Cart not found")
	}
	return c, err
}

func (s *CartService) find(ctx context.Context, owner Owner) (*cart.Cart, error) {
	if owner.UserID != nil {
		return s.cartRepo.FindByUserID(ctx, *owner.UserID)
	}
	if owner.SessionID != "" {
		return s.cartRepo.FindBySessionID(ctx, owner.SessionID)
	}
	return nil, shared.ErrNotFound
}

func (s *CartService) reprice(ctx context.Context, c *cart.Cart) (RepriceResult, error) {
	result, err := s.repricer.Reprice(ctx, c, s.discountRepo)
	if err != nil {
		return result, err
	}
	if result.DroppedDiscount != nil {
		s.metrics.DiscountRejected(ctx, "revalidation")
		s.logger.Info("discount code dropped from cart",
			zap.String("cart_id", c.ID.String()),
			zap.String("reason", result.DroppedDiscount.Error()))
	}
	return result, nil
}

func (s *CartService) saveRepriced(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	if _, err := s.reprice(ctx, c); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *CartService) toResponse(c *cart.Cart) *CartResponse {
	resp := ToCartResponse(c, s.imageURL)
	return &resp
}
