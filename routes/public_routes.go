package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/wellness_booking/handlers"
)

func PublicRoutes(app *fiber.App, h *handlers.CatalogHandler) {
	api := app.Group("/api/v1")

	services := api.Group("/services")
	services.Get("", h.ListServices)
	services.Get("/categories", h.ListCategories)
	services.Get("/:serviceId", h.GetService)
}
