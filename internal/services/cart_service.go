package services

import (
	"context"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/models"
	"krishak/internal/pricing"
	"krishak/internal/repositories"
)

// CartView is a buyer's cart with its priced summary.
type CartView struct {
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"itemCount"`
	pricing.Quote
}

// CartService manages buyers' carts.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	policy   pricing.Policy
	now      func() time.Time
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, policy pricing.Policy) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		policy:   policy,
		now:      time.Now,
	}
}

// Add puts qty units of a product in the cart. A product already in the cart
// keeps the price it was first added at; only its quantity grows.
func (s *CartService) Add(ctx context.Context, buyerID, productID string, qty int) (*CartView, error) {
	if qty < 1 {
		return nil, apperror.New(apperror.InvalidQuantity, "Quantity must be at least 1")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.Items(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	item := models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		Unit:      product.Unit,
		Quantity:  qty,
		Price:     product.Price,
		AddedAt:   s.now(),
	}
	if existing, ok := findCartItem(items, productID); ok {
		item = existing
		item.Quantity += qty
	}
	if item.Quantity > product.Stock {
		return nil, apperror.Newf(apperror.InsufficientStock, "Only %d %s of %s left in stock", product.Stock, product.Unit, product.Name)
	}

	if err := s.carts.Put(ctx, buyerID, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, buyerID)
}

// UpdateQuantity sets the quantity of a product already in the cart. Like
// Add, it refuses more than the catalog has in stock.
func (s *CartService) UpdateQuantity(ctx context.Context, buyerID, productID string, qty int) (*CartView, error) {
	if qty < 1 {
		return nil, apperror.New(apperror.InvalidQuantity, "Quantity must be at least 1")
	}
	items, err := s.carts.Items(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	item, ok := findCartItem(items, productID)
	if !ok {
		return nil, apperror.New(apperror.NotFound, "Item is not in your cart")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, apperror.Newf(apperror.InsufficientStock, "Only %d %s of %s left in stock", product.Stock, product.Unit, product.Name)
	}
	item.Quantity = qty
	if err := s.carts.Put(ctx, buyerID, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, buyerID)
}

// Remove drops a product from the cart. Removing an absent product succeeds.
func (s *CartService) Remove(ctx context.Context, buyerID, productID string) (*CartView, error) {
	if err := s.carts.Remove(ctx, buyerID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, buyerID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, buyerID string) error {
	return s.carts.Clear(ctx, buyerID)
}

// Get returns the cart with its quote.
func (s *CartService) Get(ctx context.Context, buyerID string) (*CartView, error) {
	items, err := s.carts.Items(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return &CartView{
		Items:     items,
		ItemCount: count,
		Quote:     s.policy.Quote(pricing.FromCart(items)),
	}, nil
}

func findCartItem(items []models.CartItem, productID string) (models.CartItem, bool) {
	for _, it := range items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return models.CartItem{}, false
}
