package errors

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler translates StandardErrors into HTTP responses with
// consistent JSON bodies.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// StatusCode maps an error code to an HTTP status.
func StatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return fiber.StatusBadRequest
	case ErrCodeOrganizationNotFound, ErrCodeEmployeeNotFound,
		ErrCodeFileNotFound, ErrCodeObjectNotFound:
		return fiber.StatusNotFound
	case ErrCodeStorageAccessDenied:
		return fiber.StatusForbidden
	case ErrCodeStorageUnreachable, ErrCodeCacheUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes err as a JSON error response.
//
// Validation and not-found errors are expected caller mistakes and are
// logged at warn level; everything else is an operational failure.
func (h *ErrorHandler) Respond(c *fiber.Ctx, err error) error {
	stdErr := AsStandard(err)
	status := StatusCode(stdErr.Code)

	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
		"status":        status,
		"path":          c.Path(),
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   stdErr.Message,
		"code":    string(stdErr.Code),
		"details": stdErr.Details,
	})
}
