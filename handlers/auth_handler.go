package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/middleware"
	"github.com/anjiri1684/wellness_booking/services"
)

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Username string  `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string  `json:"password" validate:"required,min=6"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=255"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	user, err := h.auth.Register(c.UserContext(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.auth.Me(c.UserContext(), id.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	id, err := middleware.CurrentUser(c)
	if err != nil {
		return unauthorized(c)
	}
	var req UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err)
	}

	user, err := h.auth.UpdateProfile(c.UserContext(), id.UserID, req.FullName, req.Phone)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(user)
}
