package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"krishak/internal/models"
)

type memoryCart struct {
	items   map[string]models.CartItem
	touched time.Time
}

// MemoryCartRepository keeps carts in process memory. Carts are lost on restart.
type MemoryCartRepository struct {
	carts map[string]*memoryCart
	now   func() time.Time
	mu    sync.RWMutex
}

// NewMemoryCartRepository creates an empty MemoryCartRepository.
func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{
		carts: make(map[string]*memoryCart),
		now:   time.Now,
	}
}

func (r *MemoryCartRepository) Items(_ context.Context, buyerID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[buyerID]
	if !ok {
		return []models.CartItem{}, nil
	}
	items := make([]models.CartItem, 0, len(cart.items))
	for _, it := range cart.items {
		items = append(items, it)
	}
	sortCartItems(items)
	return items, nil
}

func (r *MemoryCartRepository) Put(_ context.Context, buyerID string, item models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[buyerID]
	if !ok {
		cart = &memoryCart{items: make(map[string]models.CartItem)}
		r.carts[buyerID] = cart
	}
	cart.items[item.ProductID] = item
	cart.touched = r.now()
	return nil
}

func (r *MemoryCartRepository) Remove(_ context.Context, buyerID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart, ok := r.carts[buyerID]; ok {
		delete(cart.items, productID)
		cart.touched = r.now()
	}
	return nil
}

func (r *MemoryCartRepository) Clear(_ context.Context, buyerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, buyerID)
	return nil
}

// SweepIdle drops carts untouched for longer than idle and returns how many
// were dropped.
func (r *MemoryCartRepository) SweepIdle(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	dropped := 0
	for buyerID, cart := range r.carts {
		if cart.touched.Before(cutoff) {
			delete(r.carts, buyerID)
			dropped++
		}
	}
	return dropped
}

func sortCartItems(items []models.CartItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.Before(items[j].AddedAt)
		}
		return items[i].ProductID < items[j].ProductID
	})
}
