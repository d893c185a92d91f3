package serverutils

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pdf-insight-be/pkg/embedding"
	"pdf-insight-be/pkg/llm"
)

// ErrorHandlerMiddleware converts service errors bubbling out of handlers
// into JSON error responses. Upstream capability failures map to gateway
// statuses so clients can tell them apart from bad requests.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		var embErr *embedding.UnavailableError
		var genErr *llm.GenerationError

		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.As(err, &embErr):
			code = fiber.StatusServiceUnavailable
			message = "Embedding provider unavailable"
		case errors.As(err, &genErr):
			code = fiber.StatusBadGateway
			message = "Language model unavailable"
		case errors.Is(err, gorm.ErrRecordNotFound):
			code = fiber.StatusNotFound
			message = "Resource not found"
		}

		if code >= 500 {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
