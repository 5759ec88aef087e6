// handlers/task_routes.go
package handlers

import (
	"github.com/KrampusTON/indyback/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService, claimService *services.ClaimService) {
	group := app.Group("/api/tasks")

	group.Get("/user/:address", func(c *fiber.Ctx) error {
		tasks, err := taskService.GetUserTasks(c.Params("address"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(tasks)
	})

	group.Post("/social", func(c *fiber.Ctx) error {
		var req struct {
			UserAddress string `json:"user_address"`
			TweetURL    string `json:"tweet_url"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := taskService.SubmitSocialProof(c.UserContext(), req.UserAddress, req.TweetURL); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Social task submitted successfully"})
	})

	group.Post("/claim", func(c *fiber.Ctx) error {
		var req struct {
			UserAddress string `json:"user_address"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := claimService.ClaimRewards(c.UserContext(), req.UserAddress); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Rewards claimed successfully"})
	})
}
