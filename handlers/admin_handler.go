package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/services"
)

type ServiceRequest struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Category        string          `json:"category" validate:"required,max=100"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes" validate:"omitempty,gt=0"`
	ExpertName      *string         `json:"expert_name,omitempty" validate:"omitempty,max=255"`
	ImageURL        *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

type ServiceUpdateRequest struct {
	Title           *string          `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Category        *string          `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Description     *string          `json:"description,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	ExpertName      *string          `json:"expert_name,omitempty" validate:"omitempty,max=255"`
	ImageURL        *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

type UserStatusRequest struct {
	IsActive bool `json:"is_active"`
}

type AdminHandler struct {
	admin   *services.AdminService
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewAdminHandler(admin *services.AdminService, catalog *services.CatalogService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, catalog: catalog, log: log}
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.admin.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(stats)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.admin.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(users)
}

func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	userID, err := paramUUID(c, "userId")
	if err != nil {
		return badRequest(c, err)
	}
	var req UserStatusRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.admin.SetUserStatus(c.UserContext(), userID, req.IsActive); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "User status updated successfully."})
}

func (h *AdminHandler) ListBookings(c *fiber.Ctx) error {
	page, err := h.admin.ListBookings(c.UserContext(),
		models.BookingStatus(c.Query("status")),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 20),
	)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(page)
}

func (h *AdminHandler) CreateService(c *fiber.Ctx) error {
	var req ServiceRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	svc, err := h.catalog.CreateService(c.UserContext(), services.ServiceInput{
		Title:           req.Title,
		Category:        req.Category,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		ExpertName:      req.ExpertName,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(svc)
}

func (h *AdminHandler) UpdateService(c *fiber.Ctx) error {
	id, err := paramUUID(c, "serviceId")
	if err != nil {
		return badRequest(c, err)
	}
	var req ServiceUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	svc, err := h.catalog.UpdateService(c.UserContext(), id, services.ServiceUpdate{
		Title:           req.Title,
		Category:        req.Category,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		ExpertName:      req.ExpertName,
		ImageURL:        req.ImageURL,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(svc)
}

func (h *AdminHandler) DeactivateService(c *fiber.Ctx) error {
	id, err := paramUUID(c, "serviceId")
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.catalog.DeactivateService(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Service deactivated successfully"})
}
