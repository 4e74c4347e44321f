package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns products matching q.
func (r *MemoryProductRepository) List(_ context.Context, q ProductQuery) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(q.Search)
	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if q.SellerID != "" && p.SellerID != q.SellerID {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		productList = append(productList, p)
	}

	sort.SliceStable(productList, func(i, j int) bool {
		a, b := productList[i], productList[j]
		switch q.Sort {
		case SortPriceLowHigh:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case SortPriceHighLow:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case SortRatingHighLow:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, apperror.Newf(apperror.NotFound, "product with ID %s not found", id)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return apperror.Newf(apperror.NotFound, "product with ID %s not found for update", product.ID)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return apperror.Newf(apperror.NotFound, "product with ID %s not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

// reserve takes stock for every item or for none of them.
func (r *MemoryProductRepository) reserve(items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	for id, qty := range need {
		p, ok := r.products[id]
		if !ok {
			return apperror.Newf(apperror.NotFound, "product with ID %s not found", id)
		}
		if p.Stock < qty {
			return apperror.Newf(apperror.InsufficientStock, "insufficient stock for product %s", id)
		}
	}
	for id, qty := range need {
		p := r.products[id]
		p.Stock -= qty
		r.products[id] = p
	}
	return nil
}
