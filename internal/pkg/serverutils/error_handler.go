package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
)

// HTTPError carries an explicit status through the handler chain.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// Common status constructors for the domain failure kinds.
func BadRequest(message string) *HTTPError   { return NewHTTPError(fiber.StatusBadRequest, message) }
func NotFound(message string) *HTTPError     { return NewHTTPError(fiber.StatusNotFound, message) }
func Upstream(message string) *HTTPError     { return NewHTTPError(fiber.StatusInternalServerError, message) }
func AwaitTimeout(message string) *HTTPError { return NewHTTPError(fiber.StatusGatewayTimeout, message) }

// ErrorHandler is the app-level fiber error handler producing the uniform
// error envelope.
func ErrorHandler(appLogger logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError

		var httpErr *HTTPError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &httpErr):
			status = httpErr.Status
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
		}

		if status >= 500 && appLogger != nil {
			appLogger.Error("http", "request failed", map[string]interface{}{
				"path":   ctx.Path(),
				"method": ctx.Method(),
				"error":  err.Error(),
			})
		}

		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}
