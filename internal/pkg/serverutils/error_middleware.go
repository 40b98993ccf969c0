package serverutils

import (
	"errors"

	"posemarket-be/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain sentinels to HTTP statuses so
// controllers can just return errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}

		code := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, apperrors.ErrUnauthorized):
			code = fiber.StatusForbidden
		case errors.Is(err, apperrors.ErrConflict):
			code = fiber.StatusConflict
		case errors.Is(err, apperrors.ErrParse):
			code = fiber.StatusUnprocessableEntity
		case errors.Is(err, apperrors.ErrVerifierUnavailable):
			code = fiber.StatusServiceUnavailable
		case errors.Is(err, apperrors.ErrNotReady):
			code = fiber.StatusFailedDependency
		case errors.Is(err, apperrors.ErrDevice), errors.Is(err, apperrors.ErrModelLoad):
			code = fiber.StatusBadRequest
		}
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
