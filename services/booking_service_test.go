package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/notifications"
	"github.com/anjiri1684/wellness_booking/payments"
	"github.com/anjiri1684/wellness_booking/repository"
	"github.com/anjiri1684/wellness_booking/services"
)

type sentMessage struct {
	To      notifications.Recipient
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, to notifications.Recipient, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{To: to, Subject: subject, Body: body})
	return r.err
}

func (r *recordingNotifier) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, m := range r.sent {
		out = append(out, m.Subject)
	}
	return out
}

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type engine struct {
	svc      *services.BookingService
	store    *repository.MemoryStore
	notifier *recordingNotifier
	user     models.User
	service  models.Service
	now      time.Time
}

func newEngine(t *testing.T, src payments.RandomSource) *engine {
	t.Helper()

	e := &engine{
		store:    repository.NewMemoryStore(),
		notifier: &recordingNotifier{},
		now:      fixedNow,
	}
	e.store.SetClock(func() time.Time { return e.now })

	ctx := context.Background()
	name := "Jane Doe"
	e.user = models.User{Email: "jane@example.com", Username: "jane", FullName: &name, IsActive: true}
	require.NoError(t, e.store.CreateUser(ctx, &e.user))

	e.service = models.Service{Title: "Morning Yoga Flow", Category: "Yoga Therapy", Price: decimal.NewFromInt(999), DurationMinutes: 60, IsActive: true}
	require.NoError(t, e.store.CreateService(ctx, &e.service))

	catalog := services.NewCatalogService(e.store, zap.NewNop())
	e.svc = services.NewBookingService(
		e.store, e.store, catalog,
		payments.NewSimulator(src, payments.DefaultSuccessRate),
		e.notifier, zap.NewNop(),
		services.WithClock(func() time.Time { return e.now }),
	)
	return e
}

func (e *engine) input(date, slot string) services.CreateBookingInput {
	return services.CreateBookingInput{ServiceID: e.service.ID, BookingDate: date, TimeSlot: slot}
}

func TestCreateBookingConfirmedOnSuccessfulPayment(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))

	b, err := e.svc.CreateBooking(context.Background(), e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)

	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, models.PaymentSuccess, b.PaymentStatus)
	require.NotNil(t, b.PaymentID)
	assert.True(t, strings.HasPrefix(*b.PaymentID, "PAY_"))
	assert.True(t, decimal.NewFromInt(999).Equal(b.TotalAmount))
	assert.Equal(t, "2026-03-20", b.DateLabel())
	require.NotNil(t, b.Service)
	assert.Equal(t, "Morning Yoga Flow", b.Service.Title)

	stored, err := e.svc.GetBooking(context.Background(), b.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, stored.Status)
	assert.Equal(t, *b.PaymentID, *stored.PaymentID)

	require.Len(t, e.notifier.sent, 1)
	msg := e.notifier.sent[0]
	assert.Equal(t, "Booking Confirmed!", msg.Subject)
	assert.Equal(t, "jane@example.com", msg.To.Email)
	assert.Equal(t, "Jane Doe", msg.To.Name)
	assert.Contains(t, msg.Body, "Morning Yoga Flow on 2026-03-20 at 10:00 AM")
	assert.Contains(t, msg.Body, *b.PaymentID)
}

func TestCreateBookingStaysPendingOnFailedPayment(t *testing.T) {
	e := newEngine(t, payments.Fixed(1))

	b, err := e.svc.CreateBooking(context.Background(), e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.PaymentFailed, b.PaymentStatus)
	require.NotNil(t, b.PaymentID)
	assert.Equal(t, []string{"Payment Failed"}, e.notifier.subjects())
	assert.Equal(t, "Payment for Morning Yoga Flow failed. Please retry from your bookings page.", e.notifier.sent[0].Body)
}

func TestCreateBookingSnapshotsPrice(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)

	e.service.Price = decimal.NewFromInt(1499)
	require.NoError(t, e.store.SaveService(ctx, &e.service))

	stored, err := e.svc.GetBooking(ctx, b.ID, e.user.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(999).Equal(stored.TotalAmount))
}

func TestCreateBookingValidation(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("20-03-2026", "10:00 AM"))
	assert.ErrorIs(t, err, services.ErrInvalidBookingDate)

	_, err = e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-02-30", "10:00 AM"))
	assert.ErrorIs(t, err, services.ErrInvalidBookingDate)

	_, err = e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "  "))
	assert.ErrorIs(t, err, services.ErrInvalidTimeSlot)

	in := e.input("2026-03-20", "10:00 AM")
	in.ServiceID = uuid.New()
	_, err = e.svc.CreateBooking(ctx, e.user.ID, in)
	assert.ErrorIs(t, err, services.ErrServiceNotFound)

	e.service.IsActive = false
	require.NoError(t, e.store.SaveService(ctx, &e.service))
	_, err = e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	assert.ErrorIs(t, err, services.ErrServiceNotFound)

	_, err = e.svc.CreateBooking(ctx, uuid.New(), e.input("2026-03-20", "10:00 AM"))
	assert.ErrorIs(t, err, services.ErrServiceNotFound)

	assert.Empty(t, e.notifier.sent)
}

func TestCreateBookingUnknownUser(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))

	_, err := e.svc.CreateBooking(context.Background(), uuid.New(), e.input("2026-03-20", "10:00 AM"))
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestCreateBookingRejectsDuplicateSlot(t *testing.T) {
	e := newEngine(t, payments.Fixed(1))
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)

	_, err = e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	assert.ErrorIs(t, err, services.ErrDuplicateBooking)
	assert.Equal(t, services.KindConflict, services.KindOf(err))

	_, err = e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "11:00 AM"))
	assert.NoError(t, err)
}

func TestConcurrentCreateBookingAllowsExactlyOne(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	const attempts = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, services.ErrDuplicateBooking):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)

	list, err := e.svc.ListMyBookings(ctx, e.user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRebookAfterCancellation(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	first, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	require.NoError(t, e.svc.CancelBooking(ctx, first.ID, e.user.ID))

	second, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	old, err := e.svc.GetBooking(ctx, first.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, old.Status)
}

func TestRetryPaymentConfirmsAfterFailure(t *testing.T) {
	e := newEngine(t, payments.NewSequence(0.99, 0.99, 0.1))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	require.Equal(t, models.PaymentFailed, b.PaymentStatus)
	firstID := *b.PaymentID

	retried, err := e.svc.RetryPayment(ctx, b.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, retried.Status)
	assert.Equal(t, models.PaymentFailed, retried.PaymentStatus)
	assert.NotEqual(t, firstID, *retried.PaymentID)

	retried, err = e.svc.RetryPayment(ctx, b.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, retried.Status)
	assert.Equal(t, models.PaymentSuccess, retried.PaymentStatus)
	require.NotNil(t, retried.Service)

	assert.Equal(t, []string{"Payment Failed", "Payment Successful!"}, e.notifier.subjects())
	assert.Contains(t, e.notifier.sent[1].Body, b.ID.String())
	assert.Contains(t, e.notifier.sent[1].Body, *retried.PaymentID)
}

func TestRetryPaymentRejectsPaidBooking(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	paymentID := *b.PaymentID

	_, err = e.svc.RetryPayment(ctx, b.ID, e.user.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyPaid)

	stored, err := e.svc.GetBooking(ctx, b.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentID, *stored.PaymentID)
	assert.Equal(t, models.BookingConfirmed, stored.Status)
}

func TestRetryPaymentRejectsCancelledBooking(t *testing.T) {
	e := newEngine(t, payments.Fixed(1))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	require.NoError(t, e.svc.CancelBooking(ctx, b.ID, e.user.ID))

	_, err = e.svc.RetryPayment(ctx, b.ID, e.user.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyCancelled)
}

func TestRetryPaymentScopesToOwner(t *testing.T) {
	e := newEngine(t, payments.Fixed(1))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)

	_, err = e.svc.RetryPayment(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, services.ErrBookingNotFound)

	_, err = e.svc.RetryPayment(ctx, uuid.New(), e.user.ID)
	assert.ErrorIs(t, err, services.ErrBookingNotFound)
}

func TestRetryPaymentSuccessRate(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	const trials = 400
	successes := 0
	for i := 0; i < trials; i++ {
		b := &models.Booking{
			UserID:        e.user.ID,
			ServiceID:     e.service.ID,
			BookingDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			TimeSlot:      "10:00 AM",
			Status:        models.BookingPending,
			PaymentStatus: models.PaymentFailed,
			TotalAmount:   e.service.Price,
		}
		require.NoError(t, e.store.CreateBooking(ctx, b))

		retried, err := e.svc.RetryPayment(ctx, b.ID, e.user.ID)
		require.NoError(t, err)
		if retried.PaymentStatus == models.PaymentSuccess {
			successes++
		}
	}

	rate := float64(successes) / trials
	assert.InDelta(t, payments.DefaultSuccessRate, rate, 0.1)
}

func TestCancelBookingWindow(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{name: "exactly 24 hours before", now: time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)},
		{name: "two days before", now: time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)},
		{name: "one second inside window", now: time.Date(2026, 3, 19, 0, 0, 1, 0, time.UTC), wantErr: services.ErrCancellationWindow},
		{name: "booking day", now: time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC), wantErr: services.ErrCancellationWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, payments.Fixed(0))
			ctx := context.Background()

			b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
			require.NoError(t, err)

			e.now = tt.now
			err = e.svc.CancelBooking(ctx, b.ID, e.user.ID)

			stored, getErr := e.svc.GetBooking(ctx, b.ID, e.user.ID)
			require.NoError(t, getErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, services.KindPolicyViolation, services.KindOf(err))
				assert.Equal(t, models.BookingConfirmed, stored.Status)
				assert.Nil(t, stored.CancelledAt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.BookingCancelled, stored.Status)
			assert.Equal(t, models.PaymentSuccess, stored.PaymentStatus)
			require.NotNil(t, stored.CancelledAt)
			assert.True(t, stored.CancelledAt.Equal(tt.now))
			assert.False(t, stored.CancelledAt.Before(stored.CreatedAt))
		})
	}
}

func TestCancelBookingTwice(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	require.NoError(t, e.svc.CancelBooking(ctx, b.ID, e.user.ID))

	err = e.svc.CancelBooking(ctx, b.ID, e.user.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyCancelled)

	assert.Equal(t, []string{"Booking Confirmed!", "Booking Cancelled"}, e.notifier.subjects())
	assert.Equal(t, "Your booking #"+b.ID.String()+" for Morning Yoga Flow has been cancelled successfully.", e.notifier.sent[1].Body)
}

func TestCancelBookingScopesToOwner(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.CancelBooking(ctx, b.ID, uuid.New()), services.ErrBookingNotFound)
	_, err = e.svc.GetBooking(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, services.ErrBookingNotFound)
}

func TestListMyBookingsNewestFirst(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	ctx := context.Background()

	var ids []uuid.UUID
	for i, slot := range []string{"09:00 AM", "10:00 AM", "11:00 AM"} {
		e.now = fixedNow.Add(time.Duration(i) * time.Minute)
		b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", slot))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	list, err := e.svc.ListMyBookings(ctx, e.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})

	other, err := e.svc.ListMyBookings(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestNotifierFailureDoesNotFailOperations(t *testing.T) {
	e := newEngine(t, payments.Fixed(0))
	e.notifier.err = errors.New("smtp down")
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)

	require.NoError(t, e.svc.CancelBooking(ctx, b.ID, e.user.ID))
	assert.Len(t, e.notifier.sent, 2)
}

func TestStatusInvariantHoldsAcrossLifecycle(t *testing.T) {
	e := newEngine(t, payments.NewSequence(0.9, 0.1, 0.9, 0.2))
	ctx := context.Background()

	for _, slot := range []string{"09:00 AM", "10:00 AM", "11:00 AM"} {
		b, err := e.svc.CreateBooking(ctx, e.user.ID, e.input("2026-03-25", slot))
		require.NoError(t, err)
		if b.PaymentStatus == models.PaymentFailed {
			_, err = e.svc.RetryPayment(ctx, b.ID, e.user.ID)
			require.NoError(t, err)
		}
	}

	list, err := e.svc.ListMyBookings(ctx, e.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, b := range list {
		assert.Equal(t, b.Status == models.BookingConfirmed, b.PaymentStatus == models.PaymentSuccess, b.ID)
		assert.Equal(t, b.PaymentStatus != models.PaymentPending, b.PaymentID != nil)
	}
}

type flakyStore struct {
	*repository.MemoryStore
	failures int
}

func (f *flakyStore) SaveBookingState(ctx context.Context, b *models.Booking) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.MemoryStore.SaveBookingState(ctx, b)
}

func newFlakyEngine(t *testing.T, failures int) (*engine, *flakyStore, *observer.ObservedLogs) {
	t.Helper()
	e := newEngine(t, payments.Fixed(0))
	store := &flakyStore{MemoryStore: e.store, failures: failures}
	core, logs := observer.New(zapcore.WarnLevel)
	e.svc = services.NewBookingService(store, e.store, services.NewCatalogService(e.store, zap.NewNop()),
		payments.NewSimulator(payments.Fixed(0), payments.DefaultSuccessRate),
		e.notifier, zap.New(core),
		services.WithClock(func() time.Time { return e.now }),
	)
	return e, store, logs
}

func TestCreateBookingRetriesOutcomeSave(t *testing.T) {
	e, _, logs := newFlakyEngine(t, 1)

	b, err := e.svc.CreateBooking(context.Background(), e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)

	stored, err := e.store.FindUserBooking(context.Background(), b.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, stored.PaymentStatus)
	assert.Zero(t, logs.FilterMessage("payment outcome lost").Len())
}

func TestCreateBookingLogsLostPaymentID(t *testing.T) {
	e, _, logs := newFlakyEngine(t, 2)

	_, err := e.svc.CreateBooking(context.Background(), e.user.ID, e.input("2026-03-20", "10:00 AM"))
	require.Error(t, err)
	assert.Empty(t, e.notifier.subjects())

	lost := logs.FilterMessage("payment outcome lost").All()
	require.Len(t, lost, 1)
	fields := lost[0].ContextMap()
	assert.True(t, strings.HasPrefix(fields["payment_id"].(string), "PAY_"))
	assert.Equal(t, string(models.PaymentSuccess), fields["payment_status"])
}
