// handlers/admin_routes.go
package handlers

import (
	"github.com/KrampusTON/indyback/middleware"
	"github.com/KrampusTON/indyback/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, taskService *services.TaskService, exportService *services.ExportService) {
	group := app.Group("/api/admin", middleware.AdminAuthMiddleware())

	group.Post("/tasks", func(c *fiber.Ctx) error {
		var req services.TaskInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		task, err := taskService.CreateTask(req)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(task)
	})

	group.Put("/tasks/:taskId", func(c *fiber.Ctx) error {
		var req services.TaskUpdate
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		task, err := taskService.UpdateTask(c.Params("taskId"), req)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(task)
	})

	group.Delete("/tasks/:taskId", func(c *fiber.Ctx) error {
		if err := taskService.DeleteTask(c.Params("taskId")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Task deleted successfully"})
	})

	group.Get("/tasks", func(c *fiber.Ctx) error {
		tasks, err := taskService.GetAllTasks()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(tasks)
	})

	group.Post("/export/commissions", func(c *fiber.Ctx) error {
		key, err := exportService.ExportCommissions(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "Export uploaded", "key": key})
	})
}
