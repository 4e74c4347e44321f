package services_test

import (
	"context"
	"testing"

	"krishak/internal/apperror"
	"krishak/internal/models"
	"krishak/internal/pricing"
	"krishak/internal/repositories"
	"krishak/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture() (*services.CartService, *MockProductRepository, *models.Product) {
	products := new(MockProductRepository)
	tomato := &models.Product{ID: "p-tomato", Name: "Tomatoes", Price: decimal.NewFromInt(40), Stock: 50, Unit: "kg"}
	products.On("GetByID", context.Background(), "p-tomato").Return(tomato, nil)
	products.On("GetByID", context.Background(), "missing").Return(nil, apperror.New(apperror.NotFound, "Product not found"))
	svc := services.NewCartService(repositories.NewMemoryCartRepository(), products, pricing.DefaultPolicy())
	return svc, products, tomato
}

func TestCartService_AddMergesAndKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _, tomato := newCartFixture()

	cart, err := svc.Add(ctx, "b1", "p-tomato", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "40", cart.Items[0].Price.String())

	// The catalog price moves; the cart keeps the price it was added at.
	tomato.Price = decimal.NewFromInt(55)

	cart, err = svc.Add(ctx, "b1", "p-tomato", 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, "40", cart.Items[0].Price.String())
	assert.Equal(t, 5, cart.ItemCount)
	assert.Equal(t, "200", cart.Subtotal.String())
	assert.Equal(t, "40", cart.Shipping.String())
	assert.Equal(t, "240", cart.Total.String())
}

func TestCartService_AddRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCartFixture()

	_, err := svc.Add(ctx, "b1", "p-tomato", 0)
	assert.Equal(t, apperror.InvalidQuantity, apperror.KindOf(err))

	_, err = svc.Add(ctx, "b1", "missing", 1)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	_, err = svc.Add(ctx, "b1", "p-tomato", 51)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))
}

func TestCartService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCartFixture()

	_, err := svc.UpdateQuantity(ctx, "b1", "p-tomato", 2)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	_, err = svc.Add(ctx, "b1", "p-tomato", 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "b1", "p-tomato", 0)
	assert.Equal(t, apperror.InvalidQuantity, apperror.KindOf(err))

	cart, err := svc.UpdateQuantity(ctx, "b1", "p-tomato", 13)
	require.NoError(t, err)
	assert.Equal(t, 13, cart.Items[0].Quantity)
	assert.Equal(t, "520", cart.Subtotal.String())
	assert.True(t, cart.Shipping.IsZero(), "free shipping above 500")

	_, err = svc.UpdateQuantity(ctx, "b1", "p-tomato", 51)
	assert.Equal(t, apperror.InsufficientStock, apperror.KindOf(err))
	cart, err = svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 13, cart.Items[0].Quantity, "a refused update leaves the line alone")
}

func TestCartService_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCartFixture()

	_, err := svc.Add(ctx, "b1", "p-tomato", 1)
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, "b1", "p-tomato")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = svc.Remove(ctx, "b1", "p-tomato")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Items)
}

func TestCartService_ClearOnlyTouchesOwnCart(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCartFixture()

	_, err := svc.Add(ctx, "b1", "p-tomato", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "b2", "p-tomato", 4)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "b1"))

	mine, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, mine.Items)

	theirs, err := svc.Get(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, 4, theirs.ItemCount)
}
