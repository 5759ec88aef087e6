// handlers/sale_routes.go
package handlers

import (
	"github.com/KrampusTON/indyback/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSaleRoutes(app *fiber.App, commissionService *services.CommissionService, saleService *services.SaleService) {
	group := app.Group("/api/sale")

	group.Post("/purchase", func(c *fiber.Ctx) error {
		var req struct {
			UserAddress     string  `json:"user_address"`
			Amount          float64 `json:"amount"`
			EgldSpent       float64 `json:"egld_spent"`
			TransactionHash string  `json:"transaction_hash"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := commissionService.ProcessPurchase(req.UserAddress, req.Amount, req.EgldSpent, req.TransactionHash); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Purchase processed successfully"})
	})

	group.Get("/commissions/:address", func(c *fiber.Ctx) error {
		commissions, err := commissionService.GetCommissions(c.Params("address"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(commissions)
	})

	group.Get("/sale-data", func(c *fiber.Ctx) error {
		data, err := saleService.GetSaleData(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(data)
	})
}
