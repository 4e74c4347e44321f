package handlers

import (
	"krishak/internal/middleware"
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves account management endpoints.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// RegisterRoutes registers the user routes, all behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users", auth)
	userRoutes.Get("/", h.HandleList)
	userRoutes.Put("/profile", h.HandleUpdateProfile)
}

// HandleList returns every user's public profile.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

// HandleUpdateProfile changes the caller's own profile.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"user":    user,
	})
}
