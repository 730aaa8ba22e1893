package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/notifications"
	"github.com/anjiri1684/wellness_booking/payments"
	"github.com/anjiri1684/wellness_booking/repository"
)

const DefaultCancellationWindow = 24 * time.Hour

// BookingStore is the persistence boundary of the booking engine. CreateBooking
// must reject a second non-cancelled booking for the same (user, service, date,
// slot) with repository.ErrDuplicateKey, and UpdateUserBooking must serialise
// concurrent updates of one booking.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	HasActiveBooking(ctx context.Context, userID, serviceID uuid.UUID, date time.Time, slot string) (bool, error)
	FindUserBooking(ctx context.Context, id, userID uuid.UUID) (*models.Booking, error)
	SaveBookingState(ctx context.Context, b *models.Booking) error
	UpdateUserBooking(ctx context.Context, id, userID uuid.UUID, fn func(*models.Booking) error) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
}

type UserFinder interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ActiveServiceFinder interface {
	GetActiveService(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

type PaymentGateway interface {
	Attempt(ctx context.Context, amount decimal.Decimal) payments.Result
}

type BookingService struct {
	store    BookingStore
	users    UserFinder
	catalog  ActiveServiceFinder
	gateway  PaymentGateway
	notifier notifications.Notifier
	log      *zap.Logger
	now      func() time.Time
	window   time.Duration
}

type BookingOption func(*BookingService)

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithCancellationWindow(d time.Duration) BookingOption {
	return func(s *BookingService) { s.window = d }
}

func NewBookingService(
	store BookingStore,
	users UserFinder,
	catalog ActiveServiceFinder,
	gateway PaymentGateway,
	notifier notifications.Notifier,
	log *zap.Logger,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		store:    store,
		users:    users,
		catalog:  catalog,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		window:   DefaultCancellationWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateBookingInput struct {
	ServiceID   uuid.UUID
	BookingDate string
	TimeSlot    string
	Notes       *string
}

// ParseBookingDate parses a YYYY-MM-DD date as midnight UTC.
func ParseBookingDate(raw string) (time.Time, error) {
	date, err := time.ParseInLocation(models.BookingDateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidBookingDate
	}
	return date, nil
}

// CreateBooking reserves the slot, charges the service price once and returns
// the booking in whatever state the payment left it. A failed payment is not
// an error.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, in CreateBookingInput) (*models.Booking, error) {
	date, err := ParseBookingDate(in.BookingDate)
	if err != nil {
		return nil, err
	}
	slot := strings.TrimSpace(in.TimeSlot)
	if slot == "" {
		return nil, ErrInvalidTimeSlot
	}

	service, err := s.catalog.GetActiveService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.HasActiveBooking(ctx, userID, service.ID, date, slot)
	if err != nil {
		return nil, fmt.Errorf("check existing bookings: %w", err)
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	booking := &models.Booking{
		UserID:        userID,
		ServiceID:     service.ID,
		BookingDate:   date,
		TimeSlot:      slot,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		TotalAmount:   service.Price,
		Notes:         in.Notes,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateBooking
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	result := s.gateway.Attempt(ctx, booking.TotalAmount)
	if err := applyPayment(booking, result); err != nil {
		return nil, err
	}
	if err := s.saveOutcome(ctx, booking); err != nil {
		return nil, err
	}
	booking.Service = service

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("payment_status", string(booking.PaymentStatus)),
	)

	switch booking.PaymentStatus {
	case models.PaymentSuccess:
		notify(ctx, s.notifier, s.log, recipientOf(user), "Booking Confirmed!",
			fmt.Sprintf("Your booking for %s on %s at %s is confirmed! Payment ID: %s",
				service.Title, booking.DateLabel(), booking.TimeSlot, result.PaymentID))
	case models.PaymentFailed:
		notify(ctx, s.notifier, s.log, recipientOf(user), "Payment Failed",
			fmt.Sprintf("Payment for %s failed. Please retry from your bookings page.", service.Title))
	}
	return booking, nil
}

// RetryPayment charges the stored total amount again. Only the eventual
// success is announced to the user; repeated failures stay silent.
func (s *BookingService) RetryPayment(ctx context.Context, bookingID, userID uuid.UUID) (*models.Booking, error) {
	var result payments.Result
	booking, err := s.store.UpdateUserBooking(ctx, bookingID, userID, func(b *models.Booking) error {
		if b.PaymentStatus == models.PaymentSuccess {
			return ErrAlreadyPaid
		}
		if b.IsCancelled() {
			return ErrAlreadyCancelled
		}
		result = s.gateway.Attempt(ctx, b.TotalAmount)
		return applyPayment(b, result)
	})
	if err != nil {
		return nil, s.bookingError(err, "retry payment")
	}

	s.log.Info("payment retried",
		zap.String("booking_id", booking.ID.String()),
		zap.String("payment_status", string(booking.PaymentStatus)),
	)

	if booking.PaymentStatus == models.PaymentSuccess {
		if user, err := s.findUser(ctx, userID); err == nil {
			notify(ctx, s.notifier, s.log, recipientOf(user), "Payment Successful!",
				fmt.Sprintf("Your payment for booking #%s is now confirmed! Payment ID: %s", booking.ID, result.PaymentID))
		} else {
			s.log.Warn("skipping payment notification", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return booking, nil
}

// CancelBooking cancels a pending or confirmed booking unless its date is less
// than the cancellation window away. Only the calendar date counts; the time
// slot is not considered.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) error {
	booking, err := s.store.UpdateUserBooking(ctx, bookingID, userID, func(b *models.Booking) error {
		if b.IsCancelled() {
			return ErrAlreadyCancelled
		}
		now := s.now().UTC()
		if b.BookingDate.Sub(now) < s.window {
			return ErrCancellationWindow
		}
		if now.Before(b.CreatedAt) {
			now = b.CreatedAt
		}
		b.Status = models.BookingCancelled
		b.CancelledAt = &now
		return nil
	})
	if err != nil {
		return s.bookingError(err, "cancel booking")
	}

	s.log.Info("booking cancelled", zap.String("booking_id", booking.ID.String()))

	title := ""
	if booking.Service != nil {
		title = booking.Service.Title
	}
	if user, err := s.findUser(ctx, userID); err == nil {
		notify(ctx, s.notifier, s.log, recipientOf(user), "Booking Cancelled",
			fmt.Sprintf("Your booking #%s for %s has been cancelled successfully.", booking.ID, title))
	} else {
		s.log.Warn("skipping cancellation notification", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

func (s *BookingService) ListMyBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	bookings, err := s.store.ListUserBookings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (*models.Booking, error) {
	booking, err := s.store.FindUserBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, s.bookingError(err, "load booking")
	}
	return booking, nil
}

// saveOutcome persists the payment result, retrying once. A booking whose
// outcome could not be stored stays PENDING/PENDING, so the payment id is
// logged for reconciliation.
func (s *BookingService) saveOutcome(ctx context.Context, b *models.Booking) error {
	err := s.store.SaveBookingState(ctx, b)
	if err == nil {
		return nil
	}
	s.log.Warn("save payment outcome failed, retrying", zap.String("booking_id", b.ID.String()), zap.Error(err))
	if err = s.store.SaveBookingState(ctx, b); err == nil {
		return nil
	}

	paymentID := ""
	if b.PaymentID != nil {
		paymentID = *b.PaymentID
	}
	s.log.Error("payment outcome lost",
		zap.String("booking_id", b.ID.String()),
		zap.String("payment_id", paymentID),
		zap.String("payment_status", string(b.PaymentStatus)),
		zap.Error(err),
	)
	return fmt.Errorf("save payment outcome: %w", err)
}

func (s *BookingService) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *BookingService) bookingError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	case KindOf(err) != KindInternal:
		return err
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// applyPayment records a gateway outcome on b. CONFIRMED is only ever set
// together with a SUCCESS payment.
func applyPayment(b *models.Booking, res payments.Result) error {
	switch res.Status {
	case models.PaymentSuccess:
		b.Status = models.BookingConfirmed
	case models.PaymentFailed:
	case models.PaymentPending:
		return fmt.Errorf("payment gateway returned non-terminal status %q", res.Status)
	default:
		return fmt.Errorf("payment gateway returned unknown status %q", res.Status)
	}

	paymentID := res.PaymentID
	b.PaymentStatus = res.Status
	b.PaymentID = &paymentID
	return nil
}
