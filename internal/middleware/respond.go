package middleware

import (
	"krishak/internal/apperror"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Success bool              `json:"success"`
	Kind    apperror.Kind     `json:"kind"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// RespondError writes err as an ErrorBody with the status of its kind.
// Unclassified errors are logged and answered with a generic 500.
func RespondError(c *fiber.Ctx, err error) error {
	appErr, ok := apperror.As(err)
	if !ok {
		log.WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).WithError(err).Error("Request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorBody{
			Kind:    apperror.Internal,
			Message: "Something went wrong. Please try again.",
		})
	}

	status := appErr.Kind.HTTPStatus()
	message := appErr.Message
	if status >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).WithError(err).Error("Request failed")
		if appErr.Kind == apperror.Internal {
			message = "Something went wrong. Please try again."
		}
	}
	return c.Status(status).JSON(ErrorBody{
		Kind:    appErr.Kind,
		Message: message,
		Errors:  appErr.Fields,
	})
}

// ErrorHandler is the fiber.Config ErrorHandler. It keeps fiber's own errors
// (unknown route, bad method, body too large) in the ErrorBody shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		kind := apperror.Internal
		switch fe.Code {
		case fiber.StatusNotFound:
			kind = apperror.NotFound
		case fiber.StatusUnauthorized:
			kind = apperror.Unauthorized
		case fiber.StatusForbidden:
			kind = apperror.Forbidden
		case fiber.StatusTooManyRequests:
			kind = apperror.RateLimited
		default:
			if fe.Code < fiber.StatusInternalServerError {
				kind = apperror.Validation
			}
		}
		return c.Status(fe.Code).JSON(ErrorBody{Kind: kind, Message: fe.Message})
	}
	return RespondError(c, err)
}
