package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCartRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	mug := mustProduct(t, "Ceramic Mug", "MUG", "12.50", 10)
	shirt := mustProduct(t, "Shirt", "SHIRT", "25.00", 0)
	v, err := shirt.AddVariant("M", "SHIRT-M", nil, 4)
	require.NoError(t, err)
	variantID := v.ID
	saveProduct(t, db, mug)
	saveProduct(t, db, shirt)

	c, err := cart.NewCart(nil, "sess-123")
	require.NoError(t, err)
	_, err = c.AddItem(mug, nil, 2)
	require.NoError(t, err)
	_, err = c.AddItem(shirt, &variantID, 1)
	require.NoError(t, err)
	c.Reprice(pricing.Config{TaxRate: decimal.RequireFromString("0.1"), ShippingRate: decimal.NewFromInt(5)}, decimal.Zero)
	require.NoError(t, repo.Save(ctx, c))

	t.Run("loads items with products and variants", func(t *testing.T) {
		found, err := repo.FindBySessionID(ctx, "sess-123")
		require.NoError(t, err)
		require.Len(t, found.Items, 2)
		mugLine := itemFor(found, mug.ID)
		require.NotNil(t, mugLine)
		require.NotNil(t, mugLine.Product)
		assert.Equal(t, "Ceramic Mug", mugLine.Product.Name)
		shirtLine := itemFor(found, shirt.ID)
		require.NotNil(t, shirtLine)
		require.NotNil(t, shirtLine.Product)
		require.Len(t, shirtLine.Product.Variants, 1)
		assert.Equal(t, variantID, *shirtLine.VariantID)
		assert.True(t, decimal.RequireFromString("50").Equal(found.Subtotal))
		assert.True(t, decimal.RequireFromString("60").Equal(found.Total))
	})

	t.Run("removes deleted lines on save", func(t *testing.T) {
		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.NoError(t, found.RemoveItem(itemFor(found, mug.ID).ID))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Items, 1)
		assert.Equal(t, shirt.ID, reloaded.Items[0].ProductID)
	})

	t.Run("does not write back products", func(t *testing.T) {
		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		found.Items[0].Product.Name = "Tampered"
		require.NoError(t, repo.Save(ctx, found))

		p, err := NewGormProductRepository(db).FindByID(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shirt", p.Name)
	})
}

func TestGormCartRepository_Ownership(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	user, err := identity.NewUser("shopper@example.com", "password123", "Shopper")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Save(ctx, user))

	c, err := cart.NewCart(nil, "sess-abc")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	_, err = repo.FindByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	c.AssignUser(user.ID)
	require.NoError(t, repo.Save(ctx, c))

	owned, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, owned.ID)

	_, err = repo.FindBySessionID(ctx, "sess-abc")
	assert.ErrorIs(t, err, shared.ErrNotFound, "adopted carts are no longer reachable by session")

	_, err = repo.FindBySessionID(ctx, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, c.ID))
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), shared.ErrNotFound)
}

func itemFor(c *cart.Cart, productID uuid.UUID) *cart.CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
