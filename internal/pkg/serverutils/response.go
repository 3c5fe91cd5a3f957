package serverutils

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Response[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{Message: message, Data: data}
}

// ValidationError marks request-shape problems so the error middleware can map
// them to 400 instead of 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// ValidateRequest checks struct tags on a bound request body. The validator
// instance caches struct metadata, so it is built exactly once even under
// concurrent first access.
func ValidateRequest(s interface{}) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	if err := validate.Struct(s); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// ErrorHandlerMiddleware converts errors bubbling out of handlers into JSON
// envelopes with sensible status codes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": validationErr.Message})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
