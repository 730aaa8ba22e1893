package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/wellness_booking/handlers"
)

func MessagingRoutes(app *fiber.App, h *handlers.WSHandler) {
	api := app.Group("/api/v1")

	api.Use("/ws", h.UpgradeRequired)
	api.Get("/ws", websocket.New(h.Serve))
}
