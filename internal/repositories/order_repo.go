package repositories

import (
	"context"

	"krishak/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create takes stock for every item and stores the order as one unit. If
	// any item lacks stock nothing is written.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}
