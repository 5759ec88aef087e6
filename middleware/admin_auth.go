package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware gates admin routes on a wallet-address
// allowlist. The caller proves identity upstream (gateway signature
// check); here we only match the forwarded address against
// ADMIN_ADDRESSES.
func AdminAuthMiddleware() fiber.Handler {
	var admins []string
	for _, a := range strings.Split(os.Getenv("ADMIN_ADDRESSES"), ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			admins = append(admins, a)
		}
	}
	if len(admins) == 0 {
		log.Println("⚠️  ADMIN_ADDRESSES not set — admin routes will reject all requests")
	}

	return func(c *fiber.Ctx) error {
		address := c.Get("Address")
		if address == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Address header is required",
			})
		}
		for _, admin := range admins {
			if address == admin {
				return c.Next()
			}
		}
		log.Printf("🚫 [ADMIN_AUTH] Rejected non-admin address %.12s... for %s", address, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Unauthorized: Not an admin",
		})
	}
}
