package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(catalog *services.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)

	list, err := h.catalog.ListActiveServices(c.UserContext(), c.Query("category"), skip, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *CatalogHandler) GetService(c *fiber.Ctx) error {
	id, err := paramUUID(c, "serviceId")
	if err != nil {
		return badRequest(c, err)
	}

	svc, err := h.catalog.GetService(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(svc)
}
