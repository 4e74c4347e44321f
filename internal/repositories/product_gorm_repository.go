package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"krishak/internal/apperror"
	"krishak/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List retrieves products matching q from the database.
func (r *GORMProductRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{})
	if q.SellerID != "" {
		tx = tx.Where("seller_id = ?", q.SellerID)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	switch q.Sort {
	case SortPriceLowHigh:
		tx = tx.Order("price ASC")
	case SortPriceHighLow:
		tx = tx.Order("price DESC")
	case SortRatingHighLow:
		tx = tx.Order("rating DESC")
	default:
		tx = tx.Order("created_at DESC")
	}
	tx = tx.Order("id ASC")

	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Newf(apperror.NotFound, "product with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("created_at", "deleted_at").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Newf(apperror.NotFound, "product with ID %s not found for update", product.ID)
	}
	return nil
}

// Delete soft-deletes a product by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Newf(apperror.NotFound, "product with ID %s not found for deletion", id)
	}
	return nil
}

// DecrementStock takes qty units of a product only if that many are in stock.
// A missing or deleted product gives NotFound.
// The check and the write are one conditional UPDATE, so concurrent buyers
// cannot take the stock below zero.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Nothing matched: either the product is gone or its stock is short.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up product %s: %w", id, err)
		}
		if count == 0 {
			return apperror.Newf(apperror.NotFound, "product with ID %s not found", id)
		}
		return apperror.Newf(apperror.InsufficientStock, "insufficient stock for product %s", id)
	}
	return nil
}
