package order

import (
	"context"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
)

// TransactionScope runs checkout steps atomically. Every repository handed to
// fn shares one database transaction, committed only when fn returns nil.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories touched by checkout.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Carts() cart.CartRepository
	Discounts() cart.DiscountCodeRepository
	Orders() order.OrderRepository
}

// NoOpTransactionScope calls fn directly with plain repositories. Tests use it
// where rollback behavior is not under test.
type NoOpTransactionScope struct {
	products  catalog.ProductRepository
	carts     cart.CartRepository
	discounts cart.DiscountCodeRepository
	orders    order.OrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(
	products catalog.ProductRepository,
	carts cart.CartRepository,
	discounts cart.DiscountCodeRepository,
	orders order.OrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{products: products, carts: carts, discounts: discounts, orders: orders}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Products() catalog.ProductRepository    { return s.products }
func (s *NoOpTransactionScope) Carts() cart.CartRepository             { return s.carts }
func (s *NoOpTransactionScope) Discounts() cart.DiscountCodeRepository { return s.discounts }
func (s *NoOpTransactionScope) Orders() order.OrderRepository          { return s.orders }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
