package cartstate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// memoryCarts is an in-memory cart service keyed by session
type memoryCarts struct {
	mu     sync.Mutex
	prices map[uuid.UUID]decimal.Decimal
	carts  map[string]*cartapp.CartResponse
	cfg    pricing.Config
}

func newMemoryCarts(prices map[uuid.UUID]decimal.Decimal) *memoryCarts {
	return &memoryCarts{
		prices: prices,
		carts:  make(map[string]*cartapp.CartResponse),
		cfg: pricing.Config{
			TaxRate:      decimal.RequireFromString("0.08"),
			ShippingRate: decimal.RequireFromString("5.99"),
		},
	}
}

func (m *memoryCarts) cart(owner cartapp.Owner) *cartapp.CartResponse {
	c, ok := m.carts[owner.SessionID]
	if !ok {
		c = &cartapp.CartResponse{ID: uuid.New(), Items: []cartapp.CartItemResponse{}}
		m.carts[owner.SessionID] = c
	}
	return c
}

func (m *memoryCarts) reprice(c *cartapp.CartResponse) *cartapp.CartResponse {
	items := make([]pricing.LineItem, 0, len(c.Items))
	c.ItemCount = 0
	for _, item := range c.Items {
		items = append(items, pricing.LineItem{UnitPrice: item.Price, Quantity: item.Quantity})
		c.ItemCount += item.Quantity
	}
	requested := decimal.Zero
	if c.DiscountCode != nil {
		requested = decimal.NewFromInt(50)
	}
	totals := pricing.ComputeTotals(items, m.cfg, requested)
	c.Subtotal, c.Tax, c.Shipping, c.Total = totals.Subtotal, totals.Tax, totals.Shipping, totals.Total
	c.DiscountAmount = totals.Discount
	out := *c
	out.Items = append([]cartapp.CartItemResponse(nil), c.Items...)
	return &out
}

func (m *memoryCarts) Get(_ context.Context, owner cartapp.Owner) (*cartapp.CartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reprice(m.cart(owner)), nil
}

func (m *memoryCarts) AddItem(_ context.Context, owner cartapp.Owner, req cartapp.AddItemRequest) (*cartapp.CartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, ok := m.prices[req.ProductID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := m.cart(owner)
	c.Items = append(c.Items, cartapp.CartItemResponse{
		ID: uuid.New(), ProductID: req.ProductID, VariantID: req.VariantID, Quantity: req.Quantity, Price: price,
	})
	return m.reprice(c), nil
}

func (m *memoryCarts) UpdateItem(_ context.Context, owner cartapp.Owner, itemID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(owner)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = *req.Quantity
			return m.reprice(c), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryCarts) RemoveItem(_ context.Context, owner cartapp.Owner, itemID uuid.UUID) (*cartapp.CartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(owner)
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return m.reprice(c), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryCarts) Clear(_ context.Context, owner cartapp.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, owner.SessionID)
	return nil
}

func (m *memoryCarts) ApplyDiscount(_ context.Context, owner cartapp.Owner, req cartapp.ApplyDiscountRequest) (*cartapp.CartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.Code != "BIGSPENDER" {
		return nil, shared.ErrInvalidDiscount
	}
	c := m.cart(owner)
	c.DiscountCode = &req.Code
	return m.reprice(c), nil
}

func (m *memoryCarts) RemoveDiscount(_ context.Context, owner cartapp.Owner) (*cartapp.CartResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(owner)
	c.DiscountCode = nil
	return m.reprice(c), nil
}

// newCartAPI serves the cart routes behind the session and anti-forgery middleware
func newCartAPI(t *testing.T, carts handler.CartUseCases, csrfSecret string) *httptest.Server {
	t.Helper()
	csrf := auth.NewCSRFService(config.CSRFConfig{Secret: csrfSecret, TokenTTL: time.Hour}, "storefront")
	cartHandler := handler.NewCartHandler(carts)
	csrfHandler := handler.NewCSRFHandler(csrf, middleware.DefaultCSRFHeader)
	guard := middleware.CSRF(csrf, middleware.DefaultCSRFHeader)

	engine := gin.New()
	api := engine.Group("/api/v1", middleware.CartSession(config.CookieConfig{Path: "/"}))
	api.GET("/csrf-token", csrfHandler.GetToken)
	api.GET("/cart", cartHandler.Get)
	api.DELETE("/cart", guard, cartHandler.Clear)
	api.POST("/cart/items", guard, cartHandler.AddItem)
	api.PATCH("/cart/items/:id", guard, cartHandler.UpdateItem)
	api.DELETE("/cart/items/:id", guard, cartHandler.RemoveItem)
	api.POST("/cart/discount", guard, cartHandler.ApplyDiscount)
	api.DELETE("/cart/discount", guard, cartHandler.RemoveDiscount)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPRemote_RoundTrip(t *testing.T) {
	mug := uuid.New()
	carts := newMemoryCarts(map[uuid.UUID]decimal.Decimal{mug: decimal.RequireFromString("10.00")})
	server := newCartAPI(t, carts, "csrf-secret-for-tests")
	remote := NewHTTPRemote(server.URL + "/api/v1")
	c := NewController(remote, remote)
	ctx := context.Background()

	require.NoError(t, c.Fetch(ctx))
	assert.Equal(t, 0, c.ItemCount())

	require.NoError(t, c.AddItem(ctx, AddItemInput{ProductID: mug, Quantity: 3}))
	state := c.Snapshot()
	require.Len(t, state.Cart.Items, 1)
	assert.Equal(t, "30", state.Cart.Subtotal.String())
	assert.Equal(t, "2.4", state.Cart.Tax.String())
	assert.Equal(t, "38.39", c.CartTotal().String())

	itemID := state.Cart.Items[0].ID
	require.NoError(t, c.UpdateQuantity(ctx, itemID, 5))
	assert.Equal(t, 5, c.ItemCount())

	require.NoError(t, c.ApplyDiscount(ctx, "BIGSPENDER"))
	state = c.Snapshot()
	require.NotNil(t, state.Cart.DiscountCode)
	assert.Equal(t, "50", state.Cart.Subtotal.String())
	assert.Equal(t, "50", state.Cart.DiscountAmount.String(), "discount clamped to subtotal")
	assert.False(t, c.CartTotal().IsNegative())

	err := c.ApplyDiscount(ctx, "EXPIRED")
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindRemote, opErr.Kind)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Equal(t, dto.ErrCodeInvalidDiscount, remoteErr.Code)
	assert.NotNil(t, c.Snapshot().Cart.DiscountCode, "failed call keeps the previous cart")

	require.NoError(t, c.RemoveDiscount(ctx))
	assert.Nil(t, c.Snapshot().Cart.DiscountCode)

	require.NoError(t, c.UpdateQuantity(ctx, itemID, 0))
	assert.Equal(t, 0, c.ItemCount())

	require.NoError(t, c.ClearCart(ctx))
	assert.Nil(t, c.Snapshot().Cart)
}

func TestHTTPRemote_SessionCookiePersists(t *testing.T) {
	mug := uuid.New()
	carts := newMemoryCarts(map[uuid.UUID]decimal.Decimal{mug: decimal.RequireFromString("4.50")})
	server := newCartAPI(t, carts, "csrf-secret-for-tests")

	first := NewHTTPRemote(server.URL + "/api/v1")
	ctx := context.Background()
	token, err := first.Generate(ctx)
	require.NoError(t, err)
	_, err = first.AddItem(ctx, token, AddItemInput{ProductID: mug, Quantity: 2})
	require.NoError(t, err)

	cart, err := first.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())

	stranger := NewHTTPRemote(server.URL + "/api/v1")
	cart, err = stranger.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.ItemCount())
}

func TestHTTPRemote_TokenBoundToSession(t *testing.T) {
	mug := uuid.New()
	carts := newMemoryCarts(map[uuid.UUID]decimal.Decimal{mug: decimal.RequireFromString("4.50")})
	server := newCartAPI(t, carts, "csrf-secret-for-tests")
	ctx := context.Background()

	owner := NewHTTPRemote(server.URL + "/api/v1")
	token, err := owner.Generate(ctx)
	require.NoError(t, err)

	other := NewHTTPRemote(server.URL + "/api/v1")
	_, err = other.Fetch(ctx)
	require.NoError(t, err)
	_, err = other.AddItem(ctx, token, AddItemInput{ProductID: mug, Quantity: 1})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
	assert.Equal(t, dto.ErrCodeCSRFInvalid, remoteErr.Code)

	_, err = owner.AddItem(ctx, token, AddItemInput{ProductID: mug, Quantity: 1})
	assert.NoError(t, err)
}

func TestHTTPRemote_TokenFetchHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	remote := NewHTTPRemote(server.URL, WithHTTPClient(&http.Client{}))
	c := NewController(remote, remote)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.AddItem(ctx, AddItemInput{ProductID: uuid.New(), Quantity: 1})

	assert.Less(t, time.Since(start), time.Second)
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindRemote, opErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.IsLoading())
}

func TestHTTPRemote_RejectsMissingToken(t *testing.T) {
	server := newCartAPI(t, newMemoryCarts(nil), "csrf-secret-for-tests")
	remote := NewHTTPRemote(server.URL + "/api/v1")

	_, err := remote.RemoveDiscount(context.Background(), "")

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
	assert.Equal(t, dto.ErrCodeCSRFInvalid, remoteErr.Code)
}

func TestHTTPRemote_MisconfiguredServer(t *testing.T) {
	server := newCartAPI(t, newMemoryCarts(nil), "")
	remote := NewHTTPRemote(server.URL + "/api/v1")
	c := NewController(remote, remote)

	_, err := remote.Generate(context.Background())
	require.ErrorIs(t, err, ErrMisconfigured)

	err = c.ClearCart(context.Background())
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, KindMisconfigured, opErr.Kind)
}

func TestHTTPRemote_Transport(t *testing.T) {
	t.Run("bearer token and custom header", func(t *testing.T) {
		var gotAuth, gotCSRF string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotCSRF = r.Header.Get("X-Shop-CSRF")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"` + uuid.NewString() + `","items":[],"subtotal":"0","tax":"0","shipping":"0","total":"0","discountCode":null,"discountAmount":"0"}}`))
		}))
		defer server.Close()

		remote := NewHTTPRemote(server.URL, WithAccessToken("jwt"), WithCSRFHeader("X-Shop-CSRF"))
		_, err := remote.RemoveDiscount(context.Background(), "tok")

		require.NoError(t, err)
		assert.Equal(t, "Bearer jwt", gotAuth)
		assert.Equal(t, "tok", gotCSRF)
	})

	t.Run("non-json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewHTTPRemote(server.URL).Fetch(context.Background())

		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, http.StatusBadGateway, remoteErr.StatusCode)
		assert.Equal(t, "Bad Gateway", remoteErr.Message)
	})

	t.Run("malformed success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":true,"data":{"items":"nope"}}`))
		}))
		defer server.Close()

		_, err := NewHTTPRemote(server.URL).Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed response data")
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewHTTPRemote(url).Fetch(context.Background())
		require.Error(t, err)
	})
}
