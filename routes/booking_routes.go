package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/wellness_booking/handlers"
	"github.com/anjiri1684/wellness_booking/middleware"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler, secret string) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected(secret))
	booking.Post("", h.CreateBooking)
	booking.Get("/me", h.GetMyBookings)
	booking.Get("/:bookingId", h.GetBooking)
	booking.Post("/:bookingId/retry-payment", h.RetryPayment)
	booking.Delete("/:bookingId", h.CancelBooking)
}
