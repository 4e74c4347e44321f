package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/models"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
// It takes stock from the MemoryProductRepository it was built with.
type MemoryOrderRepository struct {
	orders   map[string]models.Order
	products *MemoryProductRepository
	mu       sync.RWMutex
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository.
func NewMemoryOrderRepository(products *MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[string]models.Order),
		products: products,
	}
}

// Create reserves stock and adds a new order.
func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	if r.products != nil {
		if err := r.products.reserve(order.Items); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = stored
	return nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperror.Newf(apperror.NotFound, "order with ID %s not found", id)
	}
	order.Items = append([]models.OrderItem(nil), order.Items...)
	return &order, nil
}

// ListByBuyer returns a buyer's orders, newest first.
func (r *MemoryOrderRepository) ListByBuyer(_ context.Context, buyerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.BuyerID == buyerID {
			order.Items = append([]models.OrderItem(nil), order.Items...)
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// UpdateStatus updates the status of an order.
func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperror.Newf(apperror.NotFound, "order with ID %s not found for status update", id)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
