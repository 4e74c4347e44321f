package repositories

import (
	"context"

	"krishak/internal/models"

	"github.com/shopspring/decimal"
)

// Sort orders accepted by ProductQuery.
const (
	SortNewest        = "newest"
	SortPriceLowHigh  = "price-low-high"
	SortPriceHighLow  = "price-high-low"
	SortRatingHighLow = "rating"
)

// ProductQuery narrows a product listing. Zero values mean "no filter".
type ProductQuery struct {
	SellerID string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     string
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
