package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/lendly/internal/services"
)

// serviceError maps the service failure taxonomy onto HTTP status codes while
// keeping the single {"error": msg} response envelope.
func serviceError(err error) error {
	if f, ok := services.AsFailure(err); ok {
		switch f.Kind {
		case services.FailureInvalidRequest:
			return fiber.NewError(fiber.StatusBadRequest, f.Msg)
		case services.FailureUnauthenticated:
			return fiber.NewError(fiber.StatusUnauthorized, f.Msg)
		case services.FailureNotFound:
			return fiber.NewError(fiber.StatusNotFound, f.Msg)
		case services.FailureUpstream:
			return fiber.NewError(fiber.StatusBadGateway, f.Msg)
		}
	}
	return err
}
