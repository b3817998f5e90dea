package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// MaxIdempotencyKeyLength bounds client supplied Idempotency-Key values
const MaxIdempotencyKeyLength = 255

const (
	maxListPageSize        = 100
	idempotencyKeyPrefix   = "checkout:"
	maxOrderNumberAttempts = 3
)

// ErrCheckoutInProgress is returned when a submission with the same
// idempotency key is still being processed
var ErrCheckoutInProgress = shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
	"A checkout with this idempotency key is already in progress")

// Metrics receives order business events
type Metrics interface {
	OrderPlaced(ctx context.Context, total decimal.Decimal, currency string, discounted bool)
	CheckoutReplayed(ctx context.Context)
	OrderTransitioned(ctx context.Context, status string)
}

type noopMetrics struct{}

func (noopMetrics) OrderPlaced(context.Context, decimal.Decimal, string, bool) {}
func (noopMetrics) CheckoutReplayed(context.Context)                           {}
func (noopMetrics) OrderTransitioned(context.Context, string)                  {}

// OrderService handles checkout and order management
type OrderService struct {
	orderRepo   order.OrderRepository
	txScope     TransactionScope
	repricer    *cartapp.Repricer
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	currency    valueobject.Currency
	locale      language.Tag
	metrics     Metrics
	logger      *zap.Logger
}

// OrderServiceOption configures an OrderService
type OrderServiceOption func(*OrderService)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) OrderServiceOption {
	return func(s *OrderService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) OrderServiceOption {
	return func(s *OrderService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIdempotency enables checkout deduplication through store
func WithIdempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) OrderServiceOption {
	return func(s *OrderService) {
		s.idempotency = store
		s.idemConfig = cfg
	}
}

// WithCurrency sets the order currency and the locale totals are formatted in
func WithCurrency(currency valueobject.Currency, locale language.Tag) OrderServiceOption {
	return func(s *OrderService) {
		s.currency = currency
		s.locale = locale
	}
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.OrderRepository,
	txScope TransactionScope,
	repricer *cartapp.Repricer,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		orderRepo: orderRepo,
		txScope:   txScope,
		repricer:  repricer,
		currency:  valueobject.DefaultCurrency,
		locale:    language.AmericanEnglish,
		metrics:   noopMetrics{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout places an order from the owner's cart. Stock is decremented,
// discount usage counted and the cart deleted in the same transaction as the
// order insert. A repeated submission with the same idempotency key returns
// the order of the first one.
func (s *OrderService) Checkout(ctx context.Context, owner cartapp.Owner, req CheckoutRequest) (*OrderResponse, error) {
	address, err := valueobject.NewAddress(req.ShippingAddress)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	key, err := s.idempotencyKey(owner, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if key != "" {
		replay, err := s.reserve(ctx, key)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	placed, err := s.placeOrderWithRetry(ctx, owner, req.Email, address)
	if err != nil {
		if key != "" {
			if rerr := s.idempotency.Release(ctx, key); rerr != nil {
				s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(rerr))
			}
		}
		return nil, err
	}

	if key != "" {
		if cerr := s.idempotency.Complete(ctx, key, placed.ID.String(), s.idemConfig.TTL); cerr != nil {
			s.logger.Error("failed to record checkout result",
				zap.String("key", key),
				zap.String("order_id", placed.ID.String()),
				zap.Error(cerr))
		}
	}

	s.metrics.OrderPlaced(ctx, placed.Total, placed.Currency, placed.DiscountCode != nil)
	s.logger.Info("order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("order_number", placed.OrderNumber),
		zap.String("total", placed.Total.StringFixed(2)))

	return s.toResponse(placed), nil
}

// placeOrderWithRetry runs the checkout transaction again when a concurrent
// checkout took the generated order number first
func (s *OrderService) placeOrderWithRetry(ctx context.Context, owner cartapp.Owner, email string, address valueobject.Address) (*order.Order, error) {
	for attempt := 1; ; attempt++ {
		placed, err := s.placeOrder(ctx, owner, email, address)
		if err == nil || !errors.Is(err, order.ErrOrderNumberTaken) {
			return placed, err
		}
		if attempt == maxOrderNumberAttempts {
			s.logger.Error("order number still taken after retries", zap.Int("attempts", attempt))
			return nil, shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
				"Could not allocate an order number, please try again")
		}
		s.logger.Warn("order number taken, retrying checkout", zap.Int("attempt", attempt))
	}
}

func (s *OrderService) placeOrder(ctx context.Context, owner cartapp.Owner, email string, address valueobject.Address) (*order.Order, error) {
	var placed *order.Order
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := findCart(ctx, repos.Carts(), owner)
		if err != nil {
			return err
		}

		result, err := s.repricer.Reprice(ctx, c, repos.Discounts())
		if err != nil {
			return err
		}
		if result.RemovedItems > 0 {
			return shared.NewDomainError("CART_CHANGED", "Some items are no longer available, please review your cart")
		}
		if result.DroppedDiscount != nil {
			return result.DroppedDiscount
		}
		if c.IsEmpty() {
			return shared.ErrEmptyCart
		}

		number, err := repos.Orders().GenerateOrderNumber(ctx)
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		o, err := order.PlaceOrder(number, c, email, address, s.currency)
		if err != nil {
			return err
		}

		for _, item := range c.Items {
			if err := repos.Products().DecrementStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) && item.Product != nil {
					return shared.NewDomainError(shared.ErrInsufficientStock.Code,
						fmt.Sprintf("Not enough %s in stock", item.Product.Name))
				}
				return err
			}
		}

		if result.Discount != nil {
			if err := repos.Discounts().IncrementUsage(ctx, result.Discount.ID); err != nil {
				return err
			}
		}

		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		if err := repos.Carts().Delete(ctx, c.ID); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// reserve claims the idempotency key. A non-nil response means the checkout
// was already completed and is being replayed.
func (s *OrderService) reserve(ctx context.Context, key string) (*OrderResponse, error) {
	ok, err := s.idempotency.Reserve(ctx, key, s.idemConfig.TTL)
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	result, found, err := s.idempotency.Result(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if !found || result == "" {
		return nil, ErrCheckoutInProgress
	}

	orderID, err := uuid.Parse(result)
	if err != nil {
		return nil, fmt.Errorf("corrupt idempotency result %q: %w", result, err)
	}
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.CheckoutReplayed(ctx)
	resp := s.toResponse(o)
	resp.Replayed = true
	return resp, nil
}

// idempotencyKey scopes the client key to the cart owner so two shoppers
// cannot collide on the same key
func (s *OrderService) idempotencyKey(owner cartapp.Owner, clientKey string) (string, error) {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return "", nil
	}
	if len(clientKey) > MaxIdempotencyKeyLength {
		return "", shared.NewDomainError(shared.ErrInvalidInput.Code, "Idempotency key is too long")
	}
	scope := "session:" + owner.SessionID
	if owner.UserID != nil {
		scope = "user:" + owner.UserID.String()
	}
	return idempotencyKeyPrefix + scope + ":" + clientKey, nil
}

// Get returns an order visible to the viewer. Orders of other users are
// reported as not found.
func (s *OrderService) Get(ctx context.Context, viewer Viewer, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, o) {
		return nil, shared.ErrNotFound
	}
	return s.toResponse(o), nil
}

// GetByNumber returns an order by its order number
func (s *OrderService) GetByNumber(ctx context.Context, viewer Viewer, orderNumber string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, o) {
		return nil, shared.ErrNotFound
	}
	return s.toResponse(o), nil
}

// List returns a page of orders. Customers only see their own orders.
func (s *OrderService) List(ctx context.Context, viewer Viewer, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	if !viewer.IsAdmin && viewer.UserID == nil {
		return nil, shared.ErrUnauthorized
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
	}.Normalize(maxListPageSize)
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "created_at"
	}
	if domainFilter.OrderDir == "" {
		domainFilter.OrderDir = "desc"
	}
	if filter.Status != "" {
		domainFilter.Filters[order.FilterStatus] = filter.Status
	}
	if !viewer.IsAdmin {
		domainFilter.Filters[order.FilterUserID] = *viewer.UserID
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = *s.toResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// UpdateStatus moves an order to a new status
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := o.TransitionTo(order.OrderStatus(req.Status), req.Reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.metrics.OrderTransitioned(ctx, req.Status)
	s.logger.Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", req.Status))
	return s.toResponse(o), nil
}

// Delete removes a cancelled order
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.CanDelete() {
		return shared.NewDomainError(shared.ErrInvalidState.Code, "Only cancelled orders can be deleted")
	}
	return s.orderRepo.Delete(ctx, orderID)
}

func (s *OrderService) toResponse(o *order.Order) *OrderResponse {
	resp := ToOrderResponse(o, s.locale)
	return &resp
}

func canView(viewer Viewer, o *order.Order) bool {
	if viewer.IsAdmin {
		return true
	}
	return viewer.UserID != nil && o.IsOwnedBy(*viewer.UserID)
}

func findCart(ctx context.Context, carts cart.CartRepository, owner cartapp.Owner) (*cart.Cart, error) {
	var (
		c   *cart.Cart
		err error
	)
	switch {
	case owner.UserID != nil:
		c, err = carts.FindByUserID(ctx, *owner.UserID)
	case owner.SessionID != "":
		c, err = carts.FindBySessionID(ctx, owner.SessionID)
	default:
		err = shared.ErrNotFound
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrEmptyCart
	}
	return c, err
}
