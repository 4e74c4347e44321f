package middleware

import (
	"strings"

	"krishak/internal/apperror"
	"krishak/internal/models"
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const (
	localUserID   = "user_id"
	localUserType = "user_type"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return RespondError(c, apperror.New(apperror.Unauthorized, "Not authorized, no token"))
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			return RespondError(c, apperror.New(apperror.Unauthorized, "Authorization header format must be 'Bearer <token>'"))
		}

		claims, err := authService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			log.WithField("ip", c.IP()).Debugf("JWT validation failed: %v", err)
			return RespondError(c, err)
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(localUserID, claims.Subject)
		c.Locals(localUserType, claims.UserType)

		return c.Next()
	}
}

// RequireRole rejects authenticated callers whose account type is not role.
// It must run after AuthRequired.
func RequireRole(role models.UserType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.RequireRole(UserType(c), role); err != nil {
			return RespondError(c, err)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's id, or "" outside AuthRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// UserType returns the authenticated user's account type.
func UserType(c *fiber.Ctx) models.UserType {
	t, _ := c.Locals(localUserType).(models.UserType)
	return t
}
