package serverutils

import (
	"errors"

	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindIntegrity:
		return fiber.StatusBadRequest
	case apperror.KindAuthentication:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindUpstream:
		return fiber.StatusBadGateway
	case apperror.KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// NewErrorHandler renders every error returned by a handler. Internal
// errors are logged and their cause is never sent to the client.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if appErr, ok := apperror.As(err); ok {
			status := StatusFor(appErr.Kind)
			if status == fiber.StatusInternalServerError {
				log.Error("HTTP", "Request failed", map[string]interface{}{
					"method": ctx.Method(), "path": ctx.Path(), "code": appErr.Code, "error": err,
				})
				return ctx.Status(status).JSON(AppErrorResponse(status, appErr.Code, "internal server error", nil))
			}

			var details map[string]string
			var verr *ValidationError
			if errors.As(err, &verr) {
				details = verr.Fields
			}
			return ctx.Status(status).JSON(AppErrorResponse(status, appErr.Code, appErr.Message, details))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return ctx.Status(fiberErr.Code).JSON(AppErrorResponse(fiberErr.Code, apperror.CodeValidation, fiberErr.Message, nil))
		}

		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"method": ctx.Method(), "path": ctx.Path(), "error": err,
		})
		return ctx.Status(fiber.StatusInternalServerError).
			JSON(AppErrorResponse(fiber.StatusInternalServerError, apperror.CodeInternal, "internal server error", nil))
	}
}

// ErrorHandlerMiddleware renders handler errors in place so later
// middleware sees the final status.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	handle := NewErrorHandler(log)
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return handle(ctx, err)
		}
		return nil
	}
}

// ParseBody decodes and validates a JSON request body.
func ParseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.KindValidation, apperror.CodeValidation, "request body is not valid JSON", err)
	}
	return ValidateRequest(out)
}
