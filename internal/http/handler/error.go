package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"pdfapi/internal/http/middleware"
	"pdfapi/internal/service"
)

// errorPayload defines the standardized error response body.
// Error stays a single human-readable string; Code is a stable machine-readable value.
type errorPayload struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "FILE_REQUIRED", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromCtx(c),
	})
}

// writeServiceError logs err at the handler boundary and maps its kind to a response.
func writeServiceError(c *fiber.Ctx, logger *logrus.Logger, op string, err error) error {
	status, code, message := classify(err)

	entry := logger.WithFields(logrus.Fields{
		"request_id": requestIDFromCtx(c),
		"op":         op,
		"kind":       service.KindOf(err).String(),
		"status":     status,
	}).WithError(err)
	if status >= fiber.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}

	return writeError(c, status, code, message)
}

func classify(err error) (status int, code, message string) {
	switch service.KindOf(err) {
	case service.KindClientInput:
		switch {
		case errors.Is(err, service.ErrFileRequired):
			return fiber.StatusBadRequest, "FILE_REQUIRED", "No PDF file provided"
		case errors.Is(err, service.ErrInvalidName):
			return fiber.StatusBadRequest, "INVALID_FILENAME", "invalid file name"
		default:
			// PageSelectionError messages are built from request values only.
			return fiber.StatusBadRequest, "INVALID_PAGE_SELECTION", err.Error()
		}
	case service.KindNotFound:
		return fiber.StatusNotFound, "NOT_FOUND", "PDF file not found"
	case service.KindPDFProcessing:
		return fiber.StatusUnprocessableEntity, "INVALID_PDF", "file is not a valid PDF"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "Internal server error")
		}
	}
}
