package server

import (
	"errors"
	"strings"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/gofiber/fiber/v2"
)

// errorHandler maps domain errors onto status codes and an {"error": ...} body.
func (h *handler) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, common.ErrValidation):
		status = fiber.StatusBadRequest
		message = userMessage(err)
	case errors.Is(err, common.ErrNotFound):
		status = fiber.StatusNotFound
		message = "SKU not found"
	case errors.Is(err, common.ErrNotConfigured):
		status = fiber.StatusServiceUnavailable
		message = userMessage(err)
	default:
		h.logger.Error("Request failed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"path", c.Path(),
			"error", err)
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}

// userMessage drops sentinel prefixes that only matter to errors.Is.
func userMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{common.ErrValidation, common.ErrNotConfigured} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}
