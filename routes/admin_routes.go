package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/wellness_booking/handlers"
	"github.com/anjiri1684/wellness_booking/middleware"
)

// AdminRoutes mounts the admin surface. uploads may be nil when Cloudinary is
// not configured.
func AdminRoutes(app *fiber.App, h *handlers.AdminHandler, uploads *handlers.UploadHandler, secret string) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(secret), middleware.AdminRequired())
	admin.Get("/dashboard", h.Dashboard)
	admin.Get("/bookings", h.ListBookings)

	users := admin.Group("/users")
	users.Get("", h.ListUsers)
	users.Put("/:userId/status", h.SetUserStatus)

	services := admin.Group("/services")
	services.Post("", h.CreateService)
	services.Put("/:serviceId", h.UpdateService)
	services.Delete("/:serviceId", h.DeactivateService)

	if uploads != nil {
		admin.Post("/uploads/signature", uploads.GenerateUploadSignature)
	}
}
