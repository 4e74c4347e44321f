package repositories_test

import (
	"context"
	"testing"
	"time"

	"krishak/internal/models"
	"krishak/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCartRepository()
	t0 := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Put(ctx, "b1", models.CartItem{ProductID: "p2", Quantity: 1, Price: price("120"), AddedAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.Put(ctx, "b1", models.CartItem{ProductID: "p1", Quantity: 2, Price: price("40"), AddedAt: t0}))
	require.NoError(t, repo.Put(ctx, "b2", models.CartItem{ProductID: "p1", Quantity: 9, Price: price("40"), AddedAt: t0}))

	items, err := repo.Items(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID, "ordered by add time")

	require.NoError(t, repo.Remove(ctx, "b1", "p1"))
	require.NoError(t, repo.Remove(ctx, "b1", "p1"))
	require.NoError(t, repo.Remove(ctx, "nobody", "p1"))
	items, err = repo.Items(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.Clear(ctx, "b1"))
	items, err = repo.Items(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, items)

	other, err := repo.Items(ctx, "b2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "carts are per buyer")
}

func TestMemoryCartRepository_SweepIdle(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCartRepository()
	require.NoError(t, repo.Put(ctx, "b1", models.CartItem{ProductID: "p1", Quantity: 1, Price: price("40")}))

	assert.Equal(t, 0, repo.SweepIdle(time.Hour))
	assert.Equal(t, 1, repo.SweepIdle(-time.Second))

	items, err := repo.Items(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, items)
}
