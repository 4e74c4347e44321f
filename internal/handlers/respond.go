package handlers

import (
	"krishak/internal/apperror"
	"krishak/internal/middleware"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

func respondError(c *fiber.Ctx, err error) error {
	return middleware.RespondError(c, err)
}

func invalidBody(c *fiber.Ctx, err error) error {
	log.Debugf("Error parsing request body for %s: %v", c.Path(), err)
	return respondError(c, apperror.New(apperror.Validation, "Invalid request body"))
}
