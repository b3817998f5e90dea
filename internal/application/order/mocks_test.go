package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) FindBySessionID(ctx context.Context, sessionID string) (*cart.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository.
// Only stock decrements are exercised by checkout.
type MockProductRepository struct {
	mock.Mock
	catalog.ProductRepository
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	args := m.Called(ctx, productID, variantID, quantity)
	return args.Error(0)
}

// MockDiscountCodeRepository is a mock implementation of DiscountCodeRepository.
// Only lookups and usage counting are exercised by checkout.
type MockDiscountCodeRepository struct {
	mock.Mock
	cart.DiscountCodeRepository
}

func (m *MockDiscountCodeRepository) FindByCode(ctx context.Context, code string) (*cart.DiscountCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.DiscountCode), args.Error(1)
}

func (m *MockDiscountCodeRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeIdempotencyStore is a map-backed IdempotencyStore
type fakeIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]string
	pending map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{entries: map[string]string{}, pending: map[string]bool{}}
}

func (f *fakeIdempotencyStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, done := f.entries[key]; done || f.pending[key] {
		return false, nil
	}
	f.pending[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) Complete(_ context.Context, key, result string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	f.entries[key] = result
	return nil
}

func (f *fakeIdempotencyStore) Result(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.entries[key]; ok {
		return r, true, nil
	}
	return "", f.pending[key], nil
}

func (f *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	return nil
}

func (f *fakeIdempotencyStore) Close() error { return nil }

func (f *fakeIdempotencyStore) known(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, done := f.entries[key]
	return done || f.pending[key]
}

// recordingMetrics captures order metrics for assertions
type recordingMetrics struct {
	mu          sync.Mutex
	placed      []decimal.Decimal
	replays     int
	transitions []string
}

func (r *recordingMetrics) OrderPlaced(_ context.Context, total decimal.Decimal, _ string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, total)
}

func (r *recordingMetrics) CheckoutReplayed(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replays++
}

func (r *recordingMetrics) OrderTransitioned(_ context.Context, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, status)
}

var _ shared.IdempotencyStore = (*fakeIdempotencyStore)(nil)
