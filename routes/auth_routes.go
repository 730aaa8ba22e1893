package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/wellness_booking/handlers"
	"github.com/anjiri1684/wellness_booking/middleware"
)

func AuthRoutes(app *fiber.App, h *handlers.AuthHandler, secret string) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", middleware.Protected(secret), h.Me)
	auth.Put("/me", middleware.Protected(secret), h.UpdateProfile)
}
