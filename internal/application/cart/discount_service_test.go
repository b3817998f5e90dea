package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDiscountService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and saves", func(t *testing.T) {
		repo := new(MockDiscountCodeRepository)
		svc := NewDiscountService(repo, nil)
		expires := time.Now().Add(24 * time.Hour)
		limit := 100
		minSubtotal := decimal.NewFromInt(50)
		repo.On("FindByCode", ctx, "SPRING-15").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*cart.DiscountCode")).Return(nil)

		resp, err := svc.Create(ctx, CreateDiscountRequest{
			Code:        " spring-15 ",
			Type:        "percentage",
			Value:       decimal.NewFromInt(15),
			MinSubtotal: &minSubtotal,
			ExpiresAt:   &expires,
			UsageLimit:  &limit,
		})

		require.NoError(t, err)
		assert.Equal(t, "SPRING-15", resp.Code)
		assert.Equal(t, "percentage", resp.Type)
		assert.True(t, resp.Active)
		assert.True(t, resp.MinSubtotal.Equal(minSubtotal))
		assert.Equal(t, &limit, resp.UsageLimit)
		repo.AssertExpectations(t)
	})

	t.Run("inactive on creation", func(t *testing.T) {
		repo := new(MockDiscountCodeRepository)
		svc := NewDiscountService(repo, nil)
		inactive := false
		repo.On("FindByCode", ctx, "LATER").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Create(ctx, CreateDiscountRequest{Code: "later", Type: "fixed", Value: decimal.NewFromInt(5), Active: &inactive})

		require.NoError(t, err)
		assert.False(t, resp.Active)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := new(MockDiscountCodeRepository)
		svc := NewDiscountService(repo, nil)
		existing, err := cart.NewDiscountCode("SAVE10", cart.DiscountTypePercentage, decimal.NewFromInt(10))
		require.NoError(t, err)
		repo.On("FindByCode", ctx, "SAVE10").Return(existing, nil)

		_, err = svc.Create(ctx, CreateDiscountRequest{Code: "save10", Type: "percentage", Value: decimal.NewFromInt(10)})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("percentage above 100", func(t *testing.T) {
		repo := new(MockDiscountCodeRepository)
		svc := NewDiscountService(repo, nil)

		_, err := svc.Create(ctx, CreateDiscountRequest{Code: "HUGE", Type: "percentage", Value: decimal.NewFromInt(150)})

		require.Error(t, err)
		repo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		repo := new(MockDiscountCodeRepository)
		svc := NewDiscountService(repo, nil)
		repo.On("FindByCode", ctx, "SAVE10").Return(nil, errors.New("db down"))

		_, err := svc.Create(ctx, CreateDiscountRequest{Code: "SAVE10", Type: "fixed", Value: decimal.NewFromInt(10)})

		assert.EqualError(t, err, "db down")
	})
}

func TestDiscountService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockDiscountCodeRepository)
	svc := NewDiscountService(repo, nil)
	code, err := cart.NewDiscountCode("SAVE10", cart.DiscountTypePercentage, decimal.NewFromInt(10))
	require.NoError(t, err)
	active := true

	repo.On("FindAll", ctx, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["active"] == true && f.OrderBy == "code" && f.PageSize == 20
	})).Return([]cart.DiscountCode{*code}, nil)
	repo.On("Count", ctx, mock.Anything).Return(int64(1), nil)

	page, err := svc.List(ctx, DiscountListFilter{Active: &active})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "SAVE10", page.Items[0].Code)
	assert.Equal(t, int64(1), page.Total)
}

func TestDiscountService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockDiscountCodeRepository)
	svc := NewDiscountService(repo, nil)
	id := uuid.New()
	missing := uuid.New()
	repo.On("Delete", ctx, id).Return(nil)
	repo.On("Delete", ctx, missing).Return(shared.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, missing), shared.ErrNotFound)
}
