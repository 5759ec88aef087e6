// handlers/referral_routes.go
package handlers

import (
	"github.com/KrampusTON/indyback/services"

	"github.com/gofiber/fiber/v2"
)

func SetupReferralRoutes(app *fiber.App, referralService *services.ReferralService) {
	group := app.Group("/api/referrals")

	group.Post("/register", func(c *fiber.Ctx) error {
		var req struct {
			Address         string `json:"address"`
			Name            string `json:"name"`
			ReferrerAddress string `json:"referrer_address"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		user, err := referralService.RegisterUser(req.Address, req.Name, req.ReferrerAddress)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	})

	group.Get("/stats/:address", func(c *fiber.Ctx) error {
		stats, err := referralService.GetReferralStats(c.Params("address"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(stats)
	})

	group.Get("/tree/:address", func(c *fiber.Ctx) error {
		tree, err := referralService.GetReferralTree(c.Params("address"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(tree)
	})
}
