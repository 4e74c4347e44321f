package handlers

import (
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WeatherHandler serves the farming weather advisory.
type WeatherHandler struct {
	service *services.WeatherService
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service *services.WeatherService) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// RegisterRoutes registers the weather routes.
func (h *WeatherHandler) RegisterRoutes(router fiber.Router) {
	weatherRoutes := router.Group("/weather")
	weatherRoutes.Get("/", h.HandleAdvisory)
	weatherRoutes.Get("/locations", h.HandleSuggest)
}

// HandleAdvisory returns the forecast, tips and soil moisture of ?location=.
func (h *WeatherHandler) HandleAdvisory(c *fiber.Ctx) error {
	advisory, err := h.service.Advisory(c.UserContext(), c.Query("location"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"weather": advisory,
	})
}

// HandleSuggest returns location suggestions for ?q=.
func (h *WeatherHandler) HandleSuggest(c *fiber.Ctx) error {
	locations, err := h.service.SuggestLocations(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"locations": locations,
	})
}
