package handlers

import (
	"fmt"

	"krishak/internal/middleware"
	"krishak/internal/models"
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. Buyers place and read their
// orders; sellers move them through fulfilment.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	buyer := middleware.RequireRole(models.Buyer)

	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", buyer, h.HandleCreateOrder)
	orderRoutes.Get("/", buyer, h.HandleGetOrders)
	orderRoutes.Get("/:id", buyer, h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", middleware.RequireRole(models.Seller), h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists the caller's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListForBuyer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

// HandleGetOrderByID retrieves one of the caller's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// HandleCreateOrder places an order from the cart, or from explicit items.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.PlaceOrderInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.PlaceOrder(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed successfully",
		"order":   order,
	})
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.UpdateStatus(c.UserContext(), middleware.UserID(c), orderID, updateData.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, order.Status),
		"order":   order,
	})
}
