package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/middleware"
	"github.com/anjiri1684/wellness_booking/services"
)

type CreateBookingRequest struct {
	ServiceID   string  `json:"service_id" validate:"required,uuid"`
	BookingDate string  `json:"booking_date" validate:"required,datetime=2006-01-02"`
	TimeSlot    string  `json:"time_slot" validate:"required,max=50"`
	Notes       *string `json:"notes,omitempty"`
}

type BookingHandler struct {
	bookings *services.BookingService
	log      *zap.Logger
}

func NewBookingHandler(bookings *services.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateBookingRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return badRequest(c, errors.New("Invalid service_id"))
	}

	booking, err := h.bookings.CreateBooking(c.UserContext(), user.UserID, services.CreateBookingInput{
		ServiceID:   serviceID,
		BookingDate: req.BookingDate,
		TimeSlot:    req.TimeSlot,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	bookings, err := h.bookings.ListMyBookings(c.UserContext(), user.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(bookings)
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	bookingID, err := paramUUID(c, "bookingId")
	if err != nil {
		return badRequest(c, err)
	}

	booking, err := h.bookings.GetBooking(c.UserContext(), bookingID, user.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) RetryPayment(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	bookingID, err := paramUUID(c, "bookingId")
	if err != nil {
		return badRequest(c, err)
	}

	booking, err := h.bookings.RetryPayment(c.UserContext(), bookingID, user.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	bookingID, err := paramUUID(c, "bookingId")
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.bookings.CancelBooking(c.UserContext(), bookingID, user.UserID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Booking cancelled successfully"})
}
