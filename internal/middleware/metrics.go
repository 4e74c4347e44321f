package middleware

import (
	"krishak/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count, latency and in-flight requests. Paths are
// labelled by route pattern so ids do not explode label cardinality. A
// request that panics is recorded as a 500 before the panic propagates.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		done := metrics.RequestStarted()
		status := fiber.StatusInternalServerError
		defer func() {
			done(c.Method(), c.Route().Path, status)
		}()

		err := c.Next()
		status = c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		return err
	}
}
