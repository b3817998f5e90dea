package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		p, err := NewProduct("Classic Mug", "mug-001", price("12.50"))
		require.NoError(t, err)

		assert.Equal(t, "Classic Mug", p.Name)
		assert.Equal(t, "classic-mug", p.Slug)
		assert.Equal(t, "MUG-001", p.SKU)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.True(t, p.Price.Equal(price("12.5")))
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, 1, p.GetVersion())
	})

	t.Run("falls back to generated slug", func(t *testing.T) {
		p, err := NewProduct("日本茶", "", price("3"))
		require.NoError(t, err)
		assert.Equal(t, "product-"+p.ID.String()[:8], p.Slug)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct("  ", "", price("1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with negative price", func(t *testing.T) {
		_, err := NewProduct("Mug", "", price("-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("fails with sub-cent price", func(t *testing.T) {
		_, err := NewProduct("Mug", "", price("1.005"))
		require.Error(t, err)
	})

	t.Run("fails with invalid sku characters", func(t *testing.T) {
		_, err := NewProduct("Mug", "MUG@1", price("1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SKU can only contain")
	})
}

func TestProduct_WithSlugSuffix(t *testing.T) {
	p, err := NewProduct("Classic Mug", "", price("1"))
	require.NoError(t, err)
	p.WithSlugSuffix(3)
	assert.Equal(t, "classic-mug-3", p.Slug)
}

func TestProduct_SetPricing(t *testing.T) {
	p, err := NewProduct("Mug", "", price("10"))
	require.NoError(t, err)

	compare := price("15")
	require.NoError(t, p.SetPricing(price("12"), &compare))
	assert.True(t, p.Price.Equal(price("12")))
	require.NotNil(t, p.CompareAtPrice)
	assert.Equal(t, 2, p.GetVersion())

	lower := price("5")
	assert.Error(t, p.SetPricing(price("12"), &lower))
}

func TestProduct_SetStatus(t *testing.T) {
	p, err := NewProduct("Mug", "", price("10"))
	require.NoError(t, err)

	require.NoError(t, p.SetStatus(ProductStatusArchived))
	assert.False(t, p.IsActive())
	assert.Error(t, p.SetStatus("deleted"))
}

func TestProduct_Variants(t *testing.T) {
	p, err := NewProduct("Tee", "", price("20"))
	require.NoError(t, err)

	large := price("22")
	l, err := p.AddVariant("Large", "tee-l", &large, 4)
	require.NoError(t, err)
	s, err := p.AddVariant("Small", "tee-s", nil, 0)
	require.NoError(t, err)

	_, err = p.AddVariant("large", "", nil, 1)
	assert.Error(t, err, "variant names are unique ignoring case")

	t.Run("unit price falls back to product price", func(t *testing.T) {
		got, err := p.UnitPrice(&l.ID)
		require.NoError(t, err)
		assert.True(t, got.Equal(large))

		got, err = p.UnitPrice(&s.ID)
		require.NoError(t, err)
		assert.True(t, got.Equal(price("20")))

		missing := uuid.New()
		_, err = p.UnitPrice(&missing)
		assert.Error(t, err)
	})

	t.Run("purchasable checks variant stock", func(t *testing.T) {
		assert.NoError(t, p.EnsurePurchasable(&l.ID, 4))
		err := p.EnsurePurchasable(&l.ID, 5)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.True(t, p.InStock())
	})

	t.Run("decrement stock", func(t *testing.T) {
		require.NoError(t, p.DecrementStock(&l.ID, 3))
		assert.Equal(t, 1, p.FindVariant(l.ID).Stock)
		assert.ErrorIs(t, p.DecrementStock(&l.ID, 2), shared.ErrInsufficientStock)
		assert.Error(t, p.DecrementStock(nil, 0))
	})

	t.Run("remove variant", func(t *testing.T) {
		require.NoError(t, p.RemoveVariant(s.ID))
		assert.Nil(t, p.FindVariant(s.ID))
		assert.Error(t, p.RemoveVariant(s.ID))
	})
}

func TestProduct_EnsurePurchasable_Inactive(t *testing.T) {
	p, err := NewProduct("Mug", "", price("10"))
	require.NoError(t, err)
	require.NoError(t, p.SetStock(10))
	require.NoError(t, p.SetStatus(ProductStatusDraft))

	err = p.EnsurePurchasable(nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestProduct_UpdateVariant(t *testing.T) {
	p, err := NewProduct("Tee", "", price("20"))
	require.NoError(t, err)
	m, err := p.AddVariant("M", "", nil, 2)
	require.NoError(t, err)
	mID := m.ID
	_, err = p.AddVariant("L", "", nil, 1)
	require.NoError(t, err)

	xl := price("25")
	require.NoError(t, p.UpdateVariant(mID, "XL", "tee-xl", &xl, 7))
	v := p.FindVariant(mID)
	require.NotNil(t, v)
	assert.Equal(t, "XL", v.Name)
	assert.Equal(t, "TEE-XL", v.SKU)
	assert.Equal(t, 7, v.Stock)
	assert.True(t, v.Price.Equal(xl))

	assert.Error(t, p.UpdateVariant(mID, "l", "", nil, 1), "name clashes with another variant")
	assert.Error(t, p.UpdateVariant(mID, "XL", "", nil, -1))
	assert.Error(t, p.UpdateVariant(uuid.New(), "S", "", nil, 1))
}
