package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"krishak/internal/database"
	"krishak/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory SQLite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type productCreator interface {
	Create(ctx context.Context, product *models.Product) error
}

// seedCatalog inserts a small catalog with strictly increasing creation times.
func seedCatalog(t *testing.T, repo productCreator) []models.Product {
	t.Helper()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	products := []models.Product{
		{ID: "p-tomato", Name: "Fresh Organic Tomatoes", Description: "Farm fresh, no pesticides", Price: price("40"), Stock: 50, Category: "vegetables", SellerID: "s1", Rating: 4.8},
		{ID: "p-rice", Name: "Basmati Rice", Description: "Aromatic long grain", Price: price("120"), Stock: 100, Category: "grains", SellerID: "s2", Rating: 4.6},
		{ID: "p-milk", Name: "Farm Fresh Milk", Description: "Organic cow milk", Price: price("60"), Stock: 20, Category: "dairy", SellerID: "s1", Rating: 4.9},
		{ID: "p-hoe", Name: "Garden Hoe Tool", Description: "Wooden handle", Price: price("350"), Stock: 15, Category: "tools", SellerID: "s2", Rating: 4.5},
	}
	for i := range products {
		products[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
	return products
}

func ids(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
