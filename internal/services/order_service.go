package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"krishak/internal/apperror"
	"krishak/internal/metrics"
	"krishak/internal/models"
	"krishak/internal/pricing"
	"krishak/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Exchange and routing key of order events.
const (
	OrderExchange          = "order"
	OrderCreatedRoutingKey = "order.created"
)

// Publisher sends a message to a broker exchange.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderLine asks for quantity units of a product at its current catalog price.
type OrderLine struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderInput is a checkout request. When Items is empty the buyer's cart
// is ordered at its snapshot prices and cleared afterwards.
type PlaceOrderInput struct {
	Items           []OrderLine            `json:"items,omitempty" validate:"dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required,oneof=cash upi card"`
}

// OrderCreatedEvent is published after an order is stored.
type OrderCreatedEvent struct {
	EventID   string             `json:"eventId"`
	OrderID   string             `json:"orderId"`
	BuyerID   string             `json:"buyerId"`
	Status    models.OrderStatus `json:"status"`
	Total     string             `json:"total"`
	ItemCount int                `json:"itemCount"`
	CreatedAt time.Time          `json:"createdAt"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	publisher   Publisher
	policy      pricing.Policy
	revalidate  bool
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	publisher Publisher,
	policy pricing.Policy,
	revalidatePrices bool,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		publisher:   publisher,
		policy:      policy,
		revalidate:  revalidatePrices,
	}
}

// PlaceOrder stores a new order for buyerID and takes the ordered stock.
// Orders are not deduplicated: two identical calls create two orders.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID string, in PlaceOrderInput) (*models.Order, error) {
	order, err := s.placeOrder(ctx, buyerID, in)
	if err != nil {
		metrics.OrdersPlaced.WithLabelValues(string(apperror.KindOf(err))).Inc()
		return nil, err
	}
	metrics.OrdersPlaced.WithLabelValues("placed").Inc()
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, buyerID string, in PlaceOrderInput) (*models.Order, error) {
	fromCart := len(in.Items) == 0

	var cartItems []models.CartItem
	if fromCart {
		items, err := s.cartRepo.Items(ctx, buyerID)
		if err != nil {
			return nil, err
		}
		cartItems = items
	} else {
		items, err := s.priceLines(ctx, in.Items)
		if err != nil {
			return nil, err
		}
		cartItems = items
	}
	if len(cartItems) == 0 {
		return nil, apperror.New(apperror.EmptyCart, "Your cart is empty")
	}

	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	for _, it := range cartItems {
		if it.Quantity < 1 {
			return nil, apperror.Newf(apperror.InvalidQuantity, "Quantity of %s must be at least 1", it.Name)
		}
	}

	if s.revalidate && fromCart {
		if err := s.checkPrices(ctx, cartItems); err != nil {
			return nil, err
		}
	}

	quote := s.policy.Quote(pricing.FromCart(cartItems))
	order := &models.Order{
		ID:              uuid.New().String(),
		BuyerID:         buyerID,
		Items:           orderItems(cartItems),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Subtotal:        quote.Subtotal,
		ShippingCost:    quote.Shipping,
		Total:           quote.Total,
		Status:          models.OrderProcessing,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	if fromCart {
		if err := s.cartRepo.Clear(ctx, buyerID); err != nil {
			// The order stands; a stale cart is only an inconvenience.
			log.WithError(err).WithField("buyer_id", buyerID).Warn("Failed to clear cart after order")
		}
	}

	s.publishCreated(order)
	log.WithFields(log.Fields{
		"order_id": order.ID,
		"buyer_id": buyerID,
		"total":    order.Total.StringFixed(2),
	}).Info("Order placed")
	return order, nil
}

// ListForBuyer returns the buyer's orders, newest first.
func (s *OrderService) ListForBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerID)
}

// Get returns one of the buyer's orders. Orders of other buyers are reported
// as not found.
func (s *OrderService) Get(ctx context.Context, buyerID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, apperror.New(apperror.NotFound, "Order not found")
	}
	return order, nil
}

// UpdateStatus moves an order to status. The seller must own at least one of
// the ordered products.
func (s *OrderService) UpdateStatus(ctx context.Context, sellerID, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperror.ValidationFailed(map[string]string{"status": fmt.Sprintf("invalid order status: %s", status)})
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.sellsInOrder(ctx, sellerID, order) {
		return nil, apperror.New(apperror.Forbidden, "This order contains none of your products")
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}
	order.Status = status
	return order, nil
}

func (s *OrderService) sellsInOrder(ctx context.Context, sellerID string, order *models.Order) bool {
	for _, it := range order.Items {
		product, err := s.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if product.SellerID == sellerID {
			return true
		}
	}
	return false
}

// priceLines turns explicit order lines into cart items at catalog prices.
func (s *OrderService) priceLines(ctx context.Context, lines []OrderLine) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, apperror.New(apperror.InvalidQuantity, "Quantity must be at least 1")
		}
		product, err := s.productRepo.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Unit:      product.Unit,
			Quantity:  l.Quantity,
			Price:     product.Price,
		})
	}
	return items, nil
}

func (s *OrderService) checkPrices(ctx context.Context, items []models.CartItem) error {
	for _, it := range items {
		product, err := s.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if !product.Price.Equal(it.Price) {
			return &apperror.Error{
				Kind:    apperror.PriceChanged,
				Message: fmt.Sprintf("The price of %s changed from %s to %s", it.Name, it.Price.StringFixed(2), product.Price.StringFixed(2)),
				Fields:  map[string]string{it.ProductID: product.Price.StringFixed(2)},
			}
		}
	}
	return nil
}

func (s *OrderService) publishCreated(order *models.Order) {
	if s.publisher == nil {
		log.Debug("RabbitMQ client is not initialized. Skipping message publication.")
		return
	}

	body, err := json.Marshal(OrderCreatedEvent{
		EventID:   uuid.New().String(),
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		Status:    order.Status,
		Total:     order.Total.StringFixed(2),
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		log.Printf("Failed to marshal order event: %v", err)
		return
	}
	if err := s.publisher.Publish(OrderExchange, OrderCreatedRoutingKey, body); err != nil {
		log.Printf("Warning: Failed to publish order created event for order %s: %v", order.ID, err)
		return
	}
	log.Printf("Published order created event for order %s", order.ID)
}

func orderItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
			LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return out
}
