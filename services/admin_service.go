package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/repository"
)

type AdminStore interface {
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	ListAllBookings(ctx context.Context, status models.BookingStatus, page, limit int) ([]models.Booking, int64, error)
}

type UserAdminStore interface {
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
}

type AdminService struct {
	store AdminStore
	users UserAdminStore
}

func NewAdminService(store AdminStore, users UserAdminStore) *AdminService {
	return &AdminService{store: store, users: users}
}

func (s *AdminService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	stats, err := s.store.DashboardStats(ctx)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("load dashboard: %w", err)
	}
	return stats, nil
}

// ListUsers returns customer accounts only; administrators are excluded.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsersByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserStatus activates or deactivates an account. Inactive accounts cannot log in.
func (s *AdminService) SetUserStatus(ctx context.Context, id uuid.UUID, active bool) error {
	err := s.users.SetUserActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

type BookingPage struct {
	Bookings []models.Booking `json:"bookings"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// ListBookings pages through every booking, newest first. An empty status
// lists all of them.
func (s *AdminService) ListBookings(ctx context.Context, status models.BookingStatus, page, limit int) (*BookingPage, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, status)
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > defaultServiceListLimit {
		limit = 20
	}

	bookings, total, err := s.store.ListAllBookings(ctx, status, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return &BookingPage{Bookings: bookings, Total: total, Page: page, Limit: limit}, nil
}
