package cartstate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AddItemInput adds a product, or one of its variants, to the cart
type AddItemInput struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

// Remote is the cart API. Every mutating method receives the anti-forgery
// token generated for that call.
type Remote interface {
	Fetch(ctx context.Context) (*CartSnapshot, error)
	AddItem(ctx context.Context, token string, input AddItemInput) (*CartSnapshot, error)
	UpdateItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*CartSnapshot, error)
	RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*CartSnapshot, error)
	Clear(ctx context.Context, token string) error
	ApplyDiscount(ctx context.Context, token, code string) (*CartSnapshot, error)
	RemoveDiscount(ctx context.Context, token string) (*CartSnapshot, error)
}

// TokenGenerator issues anti-forgery tokens. Generating may be a network
// call, so it honours ctx. HTTPRemote and ServiceTokens satisfy it.
type TokenGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// ServiceTokens issues tokens from an in-process auth.CSRFService, bound to
// Subject (see auth.CSRFSubjectUser and auth.CSRFSubjectSession).
type ServiceTokens struct {
	Service *auth.CSRFService
	Subject string
}

// Generate signs a token for Subject
func (t ServiceTokens) Generate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.Service.Generate(t.Subject)
}

// Controller holds the client's view of the cart. It is safe for
// concurrent use; see the package documentation for ordering.
type Controller struct {
	remote Remote
	tokens TokenGenerator
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	version   uint64
	observers []func(State)

	// notifyMu orders observer calls; notified is the last version delivered
	notifyMu sync.Mutex
	notified uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger remote failures are reported to
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers fn to receive a copy of the state after changes.
// Observers are called one at a time and never see an older state after a
// newer one; a state superseded before delivery is skipped. An observer may
// read the controller but must not start operations.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// NewController creates a controller with an empty state
func NewController(remote Remote, tokens TokenGenerator, opts ...Option) *Controller {
	c := &Controller{
		remote: remote,
		tokens: tokens,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// ItemCount returns the total quantity in the cart, 0 without a cart
func (c *Controller) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Cart.ItemCount()
}

// CartTotal returns the cart total, 0 without a cart
func (c *Controller) CartTotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Cart == nil {
		return decimal.Zero
	}
	return c.state.Cart.Total
}

// IsLoading reports whether an operation is in flight
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsLoading
}

// Error returns the message of the last failed operation
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Error
}

// Fetch loads the cart
func (c *Controller) Fetch(ctx context.Context) error {
	return c.run(ctx, OpFetch, false, func(ctx context.Context, _ string) (*CartSnapshot, error) {
		return c.remote.Fetch(ctx)
	})
}

// AddItem adds a product to the cart. Quantity must be positive.
func (c *Controller) AddItem(ctx context.Context, input AddItemInput) error {
	if input.ProductID == uuid.Nil {
		return c.reject(validationError(OpAddItem, "Product is required"))
	}
	if input.Quantity <= 0 {
		return c.reject(validationError(OpAddItem, "Quantity must be greater than zero"))
	}
	return c.run(ctx, OpAddItem, true, func(ctx context.Context, token string) (*CartSnapshot, error) {
		return c.remote.AddItem(ctx, token, input)
	})
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line through RemoveItem instead of calling the update endpoint.
func (c *Controller) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, itemID)
	}
	return c.run(ctx, OpUpdateQuantity, true, func(ctx context.Context, token string) (*CartSnapshot, error) {
		return c.remote.UpdateItem(ctx, token, itemID, quantity)
	})
}

// RemoveItem drops a line from the cart
func (c *Controller) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	return c.run(ctx, OpRemoveItem, true, func(ctx context.Context, token string) (*CartSnapshot, error) {
		return c.remote.RemoveItem(ctx, token, itemID)
	})
}

// ClearCart empties the cart. On success the state holds no cart at all.
func (c *Controller) ClearCart(ctx context.Context) error {
	return c.run(ctx, OpClearCart, true, func(ctx context.Context, token string) (*CartSnapshot, error) {
		return nil, c.remote.Clear(ctx, token)
	})
}

// ApplyDiscount applies a discount code. The code's format is checked by
// the server only.
func (c *Controller) ApplyDiscount(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return c.reject(validationError(OpApplyDiscount, "Discount code is required"))
	}
	return c.run(ctx, OpApplyDiscount, true, func(ctx context.Context, token string) (*CartSnapshot, error) {
		return c.remote.ApplyDiscount(ctx, token, code)
	})
}

// RemoveDiscount removes the discount code
func (c *Controller) RemoveDiscount(ctx context.Context) error {
	return c.run(ctx, OpRemoveDiscount, true, func(ctx context.Context, token string) (*CartSnapshot, error) {
		return c.remote.RemoveDiscount(ctx, token)
	})
}

type remoteCall func(ctx context.Context, token string) (*CartSnapshot, error)

// run performs one operation: begin, at most one remote call, settle.
// A nil snapshot on success clears the cart.
func (c *Controller) run(ctx context.Context, op Op, mutating bool, call remoteCall) error {
	c.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
		s.ErrorKind = ""
	})

	var token string
	if mutating {
		var err error
		token, err = c.tokens.Generate(ctx)
		if err != nil {
			return c.fail(tokenError(op, err))
		}
	}

	snapshot, err := call(ctx, token)
	if err != nil {
		return c.fail(remoteError(op, err))
	}

	c.update(func(s *State) {
		s.IsLoading = false
		s.Cart = snapshot.Clone()
	})
	return nil
}

func tokenError(op Op, err error) *OpError {
	if errors.Is(err, ErrMisconfigured) || errors.Is(err, auth.ErrCSRFSecretMissing) {
		return misconfiguredError(op, err)
	}
	return remoteError(op, err)
}

// fail settles a failed operation, leaving the cart untouched
func (c *Controller) fail(opErr *OpError) error {
	c.logger.Warn("Cart operation failed",
		zap.String("op", string(opErr.Op)),
		zap.String("kind", string(opErr.Kind)),
		zap.Error(opErr.Err),
	)
	return c.reject(opErr)
}

func (c *Controller) reject(opErr *OpError) error {
	c.update(func(s *State) {
		s.IsLoading = false
		s.Error = opErr.Message
		s.ErrorKind = opErr.Kind
	})
	return opErr
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	c.version++
	version := c.version
	observers := c.observers
	var snapshot State
	if len(observers) > 0 {
		snapshot = c.state.clone()
	}
	c.mu.Unlock()

	if len(observers) == 0 {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if version <= c.notified {
		return
	}
	c.notified = version
	for _, observe := range observers {
		observe(snapshot)
	}
}
