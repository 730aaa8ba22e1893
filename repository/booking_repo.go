package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anjiri1684/wellness_booking/models"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateBooking inserts a booking. A second active booking for the same
// (user, service, date, slot) is rejected by idx_bookings_active_slot.
func (r *BookingRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error)
}

func (r *BookingRepository) HasActiveBooking(ctx context.Context, userID, serviceID uuid.UUID, date time.Time, slot string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("user_id = ? AND service_id = ? AND booking_date = ? AND time_slot = ? AND status <> ?",
			userID, serviceID, date, slot, models.BookingCancelled).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *BookingRepository) FindUserBooking(ctx context.Context, id, userID uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// SaveBookingState persists the mutable lifecycle columns of b.
func (r *BookingRepository) SaveBookingState(ctx context.Context, b *models.Booking) error {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":         b.Status,
			"payment_status": b.PaymentStatus,
			"payment_id":     b.PaymentID,
			"cancelled_at":   b.CancelledAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserBooking locks the booking row, hands it to fn and persists the
// result in the same transaction. An error from fn rolls everything back.
func (r *BookingRepository) UpdateUserBooking(ctx context.Context, id, userID uuid.UUID, fn func(*models.Booking) error) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", id, userID).
			First(&b).Error; err != nil {
			return err
		}
		if err := fn(&b); err != nil {
			return err
		}
		return tx.Model(&models.Booking{}).Where("id = ?", b.ID).Updates(map[string]any{
			"status":         b.Status,
			"payment_status": b.PaymentStatus,
			"payment_id":     b.PaymentID,
			"cancelled_at":   b.CancelledAt,
		}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).Preload("Service").First(&b, "id = ?", b.ID).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *BookingRepository) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&bookings).Error
	return bookings, translate(err)
}

// ListBookingsOn returns bookings dated on date with one of statuses, with user and service loaded.
func (r *BookingRepository) ListBookingsOn(ctx context.Context, date time.Time, statuses ...models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Service").
		Where("booking_date = ? AND status IN ?", date, statuses).
		Order("created_at asc").
		Find(&bookings).Error
	return bookings, translate(err)
}

func (r *BookingRepository) ListAllBookings(ctx context.Context, status models.BookingStatus, page, limit int) ([]models.Booking, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var bookings []models.Booking
	err := query.
		Preload("User").
		Preload("Service").
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return bookings, total, nil
}

func (r *BookingRepository) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleUser).Count(&stats.TotalUsers).Error; err != nil {
		return stats, translate(err)
	}
	if err := db.Model(&models.Booking{}).Count(&stats.TotalBookings).Error; err != nil {
		return stats, translate(err)
	}

	counts := []struct {
		status models.BookingStatus
		dst    *int64
	}{
		{models.BookingPending, &stats.PendingBookings},
		{models.BookingConfirmed, &stats.ConfirmedBookings},
		{models.BookingCancelled, &stats.CancelledBookings},
	}
	for _, c := range counts {
		if err := db.Model(&models.Booking{}).Where("status = ?", c.status).Count(c.dst).Error; err != nil {
			return stats, translate(err)
		}
	}

	var revenue []models.Booking
	if err := db.Select("total_amount").
		Where("payment_status = ?", models.PaymentSuccess).
		Find(&revenue).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, translate(err)
	}
	for _, b := range revenue {
		stats.TotalRevenue = stats.TotalRevenue.Add(b.TotalAmount)
	}
	return stats, nil
}
