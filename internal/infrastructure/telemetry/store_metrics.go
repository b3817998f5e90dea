package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// StoreMetrics records storefront business counters.
// A nil *StoreMetrics is valid and records nothing.
type StoreMetrics struct {
	ordersPlaced     metric.Int64Counter
	orderValue       metric.Float64Histogram
	cartOperations   metric.Int64Counter
	checkoutReplays  metric.Int64Counter
	discountRejected metric.Int64Counter
	orderTransitions metric.Int64Counter
}

// NewStoreMetrics creates the instruments on meter.
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &StoreMetrics{}
	var err error
	if m.ordersPlaced, err = meter.Int64Counter("store.orders.placed",
		metric.WithDescription("Orders created by checkout"),
		metric.WithUnit("{order}")); err != nil {
		return nil, err
	}
	if m.orderValue, err = meter.Float64Histogram("store.orders.value",
		metric.WithDescription("Order grand total"),
		metric.WithUnit("{currency}"),
		metric.WithExplicitBucketBoundaries(10, 25, 50, 100, 250, 500, 1000, 5000)); err != nil {
		return nil, err
	}
	if m.cartOperations, err = meter.Int64Counter("store.cart.operations",
		metric.WithDescription("Cart mutations by operation and outcome")); err != nil {
		return nil, err
	}
	if m.checkoutReplays, err = meter.Int64Counter("store.checkout.replays",
		metric.WithDescription("Checkout requests answered from the idempotency store")); err != nil {
		return nil, err
	}
	if m.discountRejected, err = meter.Int64Counter("store.discounts.rejected",
		metric.WithDescription("Discount codes refused at apply or reprice time")); err != nil {
		return nil, err
	}
	if m.orderTransitions, err = meter.Int64Counter("store.orders.transitions",
		metric.WithDescription("Order status changes by target status")); err != nil {
		return nil, err
	}
	return m, nil
}

// OrderPlaced records a completed checkout.
func (m *StoreMetrics) OrderPlaced(ctx context.Context, total decimal.Decimal, currency string, discounted bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("currency", currency),
		attribute.Bool("discounted", discounted),
	)
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderValue.Record(ctx, total.InexactFloat64(), attrs)
}

// CartOperation records one cart mutation.
func (m *StoreMetrics) CartOperation(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}
	m.cartOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("success", err == nil),
	))
}

// CheckoutReplayed records a checkout answered from a stored result.
func (m *StoreMetrics) CheckoutReplayed(ctx context.Context) {
	if m == nil {
		return
	}
	m.checkoutReplays.Add(ctx, 1)
}

// DiscountRejected records a refused discount code.
func (m *StoreMetrics) DiscountRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.discountRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// OrderTransitioned records an order moving to status.
func (m *StoreMetrics) OrderTransitioned(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.orderTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
