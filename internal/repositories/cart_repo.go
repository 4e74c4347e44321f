package repositories

import (
	"context"

	"krishak/internal/models"
)

// CartRepository stores one cart per buyer, keyed by product id.
type CartRepository interface {
	// Items returns the buyer's cart ordered by the time each product was added.
	Items(ctx context.Context, buyerID string) ([]models.CartItem, error)
	// Put inserts or replaces the line for item.ProductID.
	Put(ctx context.Context, buyerID string, item models.CartItem) error
	// Remove deletes a line. Removing an absent line is not an error.
	Remove(ctx context.Context, buyerID, productID string) error
	// Clear empties the buyer's cart.
	Clear(ctx context.Context, buyerID string) error
}
