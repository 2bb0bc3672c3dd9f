package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/domain"
)

// errorStatus código HTTP y código de error para un error de dominio.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "BARCODE_CONFLICT"
	case errors.Is(err, domain.ErrStaleWrite):
		return fiber.StatusConflict, "STALE_WRITE"
	case errors.Is(err, domain.ErrTimeout):
		return fiber.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, domain.ErrTransientStore):
		return fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// writeError responde con dto.ErrorResponse según el error de dominio.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	markRetryable(c, err)
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if status == fiber.StatusInternalServerError {
		resp.Message = "error interno"
	}
	return c.Status(status).JSON(resp)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// markRetryable sugiere reintentar cuando el fallo es transitorio.
func markRetryable(c *fiber.Ctx, err error) {
	if domain.IsRetryable(err) {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
}
