package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// ServiceAuthMiddleware guards internal endpoints that only trusted services
// may call, such as wallet reconciliation. The caller presents the shared key
// in the X-Service-Key header.
func ServiceAuthMiddleware(serviceKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if serviceKey == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "internal endpoints disabled")
		}

		presented := c.Get("X-Service-Key")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(serviceKey)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid service key")
		}

		return c.Next()
	}
}
