package handlers

import (
	"krishak/internal/middleware"
	"krishak/internal/models"
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler serves the buyer's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the cart routes for buyers.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth, middleware.RequireRole(models.Buyer))
	cartRoutes.Get("/", h.HandleGet)
	cartRoutes.Delete("/", h.HandleClear)
	cartRoutes.Post("/items", h.HandleAdd)
	cartRoutes.Put("/items/:productId", h.HandleUpdate)
	cartRoutes.Delete("/items/:productId", h.HandleRemove)
}

// AddToCartRequest is the body of POST /cart/items. Quantity defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// UpdateCartRequest is the body of PUT /cart/items/:productId.
type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// HandleGet returns the cart with its totals.
func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	cart, err := h.service.Get(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, cart)
}

// HandleAdd puts a product in the cart.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cart, err := h.service.Add(c.UserContext(), middleware.UserID(c), req.ProductID, qty)
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, cart)
}

// HandleUpdate sets the quantity of a cart line.
func (h *CartHandler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateCartRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	cart, err := h.service.UpdateQuantity(c.UserContext(), middleware.UserID(c), c.Params("productId"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, cart)
}

// HandleRemove drops a cart line.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	cart, err := h.service.Remove(c.UserContext(), middleware.UserID(c), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return cartResponse(c, cart)
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart cleared",
	})
}

func cartResponse(c *fiber.Ctx, cart *services.CartView) error {
	return c.JSON(fiber.Map{
		"success": true,
		"cart":    cart,
	})
}
