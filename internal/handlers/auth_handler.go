package handlers

import (
	"krishak/internal/middleware"
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the authentication routes. limit guards the
// credential endpoints and auth guards the profile.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth, limit fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", limit, h.HandleRegister)
	authRoutes.Post("/login", limit, h.HandleLogin)
	authRoutes.Get("/profile", auth, h.HandleProfile)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	res, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"token":   res.Token,
		"user":    res.User,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	res, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

// HandleProfile returns the authenticated user.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	user, err := h.authService.Profile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
