package common

import (
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const internalErrorMessage = "An unexpected error occurred"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// ValidationError is a rejected request body, path or query parameter.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrorResponseJSON writes an ErrorResponse with the given status.
func ErrorResponseJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     utils.StatusMessage(status),
		Message:   message,
		Path:      c.Path(),
	})
}

// ErrorJSON maps err to its status code and writes it. Internal errors are
// logged and replaced by a generic message.
func ErrorJSON(c *fiber.Ctx, err error) error {
	status := ErrorToStatusCode(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		message = internalErrorMessage
	}
	return ErrorResponseJSON(c, status, message)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var validationErr *ValidationError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrCardNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrCardAlreadyBlocked),
		errors.Is(err, domain.ErrInvalidOperation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
