package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anjiri1684/wellness_booking/database"
	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/repository"
)

type fixture struct {
	db       *gorm.DB
	users    *repository.UserRepository
	services *repository.ServiceRepository
	bookings *repository.BookingRepository
	user     models.User
	service  models.Service
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Connect("sqlite", filepath.Join(t.TempDir(), "test.db")+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		services: repository.NewServiceRepository(db),
		bookings: repository.NewBookingRepository(db),
	}

	ctx := context.Background()
	f.user = models.User{Email: "jane@example.com", Username: "jane", HashedPassword: "x", IsActive: true}
	require.NoError(t, f.users.CreateUser(ctx, &f.user))

	f.service = models.Service{Title: "Morning Yoga Flow", Category: "Yoga Therapy", Price: decimal.NewFromInt(999), DurationMinutes: 60, IsActive: true}
	require.NoError(t, f.services.CreateService(ctx, &f.service))
	return f
}

func (f *fixture) newBooking(date time.Time, slot string) *models.Booking {
	return &models.Booking{
		UserID:        f.user.ID,
		ServiceID:     f.service.ID,
		BookingDate:   date,
		TimeSlot:      slot,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		TotalAmount:   f.service.Price,
	}
}

func day(offset int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestCreateBookingRejectsSecondActiveBooking(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	date := day(10)

	require.NoError(t, f.bookings.CreateBooking(ctx, f.newBooking(date, "10:00 AM")))

	exists, err := f.bookings.HasActiveBooking(ctx, f.user.ID, f.service.ID, date, "10:00 AM")
	require.NoError(t, err)
	assert.True(t, exists)

	err = f.bookings.CreateBooking(ctx, f.newBooking(date, "10:00 AM"))
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)

	require.NoError(t, f.bookings.CreateBooking(ctx, f.newBooking(date, "11:00 AM")))
}

func TestCancelledBookingFreesTheSlot(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	date := day(10)

	first := f.newBooking(date, "10:00 AM")
	require.NoError(t, f.bookings.CreateBooking(ctx, first))

	now := time.Now().UTC()
	_, err := f.bookings.UpdateUserBooking(ctx, first.ID, f.user.ID, func(b *models.Booking) error {
		b.Status = models.BookingCancelled
		b.CancelledAt = &now
		return nil
	})
	require.NoError(t, err)

	exists, err := f.bookings.HasActiveBooking(ctx, f.user.ID, f.service.ID, date, "10:00 AM")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, f.bookings.CreateBooking(ctx, f.newBooking(date, "10:00 AM")))
}

func TestCreateBookingEnforcesForeignKeys(t *testing.T) {
	f := setupFixture(t)

	b := f.newBooking(day(5), "09:00 AM")
	b.ServiceID = uuid.New()
	assert.Error(t, f.bookings.CreateBooking(context.Background(), b))
}

func TestUpdateUserBookingRollsBackOnError(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	b := f.newBooking(day(3), "10:00 AM")
	require.NoError(t, f.bookings.CreateBooking(ctx, b))

	boom := errors.New("boom")
	_, err := f.bookings.UpdateUserBooking(ctx, b.ID, f.user.ID, func(b *models.Booking) error {
		b.Status = models.BookingConfirmed
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := f.bookings.FindUserBooking(ctx, b.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
	require.NotNil(t, stored.Service)
	assert.Equal(t, f.service.Title, stored.Service.Title)
}

func TestFindUserBookingScopesToOwner(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	b := f.newBooking(day(3), "10:00 AM")
	require.NoError(t, f.bookings.CreateBooking(ctx, b))

	_, err := f.bookings.FindUserBooking(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.bookings.UpdateUserBooking(ctx, b.ID, uuid.New(), func(*models.Booking) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveBookingState(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	b := f.newBooking(day(3), "10:00 AM")
	require.NoError(t, f.bookings.CreateBooking(ctx, b))

	paymentID := "PAY_ABCDEF123456"
	b.Status = models.BookingConfirmed
	b.PaymentStatus = models.PaymentSuccess
	b.PaymentID = &paymentID
	require.NoError(t, f.bookings.SaveBookingState(ctx, b))

	stored, err := f.bookings.FindUserBooking(ctx, b.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, stored.Status)
	assert.Equal(t, models.PaymentSuccess, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, paymentID, *stored.PaymentID)
	assert.True(t, decimal.NewFromInt(999).Equal(stored.TotalAmount))

	missing := f.newBooking(day(3), "12:00 PM")
	missing.ID = uuid.New()
	assert.ErrorIs(t, f.bookings.SaveBookingState(ctx, missing), repository.ErrNotFound)
}

func TestListUserBookingsNewestFirst(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []uuid.UUID
	for i, slot := range []string{"09:00 AM", "10:00 AM", "11:00 AM"} {
		b := f.newBooking(day(7), slot)
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.bookings.CreateBooking(ctx, b))
		ids = append(ids, b.ID)
	}

	list, err := f.bookings.ListUserBookings(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
	assert.NotNil(t, list[0].Service)
}

func TestListBookingsOn(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	confirmed := f.newBooking(day(1), "09:00 AM")
	confirmed.Status = models.BookingConfirmed
	confirmed.PaymentStatus = models.PaymentSuccess
	require.NoError(t, f.bookings.CreateBooking(ctx, confirmed))
	require.NoError(t, f.bookings.CreateBooking(ctx, f.newBooking(day(1), "10:00 AM")))
	require.NoError(t, f.bookings.CreateBooking(ctx, f.newBooking(day(2), "10:00 AM")))

	list, err := f.bookings.ListBookingsOn(ctx, day(1), models.BookingConfirmed)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, confirmed.ID, list[0].ID)
	require.NotNil(t, list[0].User)
	assert.Equal(t, "jane@example.com", list[0].User.Email)
}

func TestDashboardStatsAndAdminListing(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	admin := models.User{Email: "admin@example.com", Username: "admin", HashedPassword: "x", Role: models.RoleAdmin}
	require.NoError(t, f.users.CreateUser(ctx, &admin))

	paid := f.newBooking(day(4), "09:00 AM")
	paid.Status = models.BookingConfirmed
	paid.PaymentStatus = models.PaymentSuccess
	require.NoError(t, f.bookings.CreateBooking(ctx, paid))

	failed := f.newBooking(day(4), "10:00 AM")
	failed.PaymentStatus = models.PaymentFailed
	require.NoError(t, f.bookings.CreateBooking(ctx, failed))

	cancelled := f.newBooking(day(4), "11:00 AM")
	cancelled.Status = models.BookingCancelled
	require.NoError(t, f.bookings.CreateBooking(ctx, cancelled))

	stats, err := f.bookings.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.PendingBookings)
	assert.Equal(t, int64(1), stats.ConfirmedBookings)
	assert.Equal(t, int64(1), stats.CancelledBookings)
	assert.True(t, decimal.NewFromInt(999).Equal(stats.TotalRevenue), stats.TotalRevenue.String())

	list, total, err := f.bookings.ListAllBookings(ctx, models.BookingPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, failed.ID, list[0].ID)
	assert.NotNil(t, list[0].User)
}

func TestUpdateProfile(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	phone := "+254700000000"
	updated, err := f.users.UpdateProfile(ctx, f.user.ID, nil, &phone)
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.Nil(t, updated.FullName)

	_, err = f.users.UpdateProfile(ctx, uuid.New(), nil, &phone)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetUserActive(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.SetUserActive(ctx, f.user.ID, false))
	stored, err := f.users.FindUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	assert.ErrorIs(t, f.users.SetUserActive(ctx, uuid.New(), true), repository.ErrNotFound)
}
