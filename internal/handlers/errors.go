package handlers

import (
	"errors"

	"productapi/internal/models"
	"productapi/internal/services"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	codeValidation        = "validation_error"
	codeNotFound          = "not_found"
	codeInsufficientStock = "insufficient_stock"
	codeInternal          = "internal_error"
)

// respondError maps service errors onto HTTP status codes. Unexpected faults
// are logged and answered with a generic message.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Code:    codeValidation,
			Message: err.Error(),
			Errors:  map[string]string{vErr.Field: vErr.Reason},
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Code:    codeNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{
			Code:    codeInsufficientStock,
			Message: err.Error(),
		})
	default:
		log.Ctx(c.UserContext()).Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Code:    codeInternal,
			Message: "An unexpected error occurred",
		})
	}
}

func badRequest(c *fiber.Ctx, message string, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Code:    codeValidation,
		Message: message,
		Errors:  fields,
	})
}
