package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/notifications"
)

const jobTimeout = 2 * time.Minute

// BookingLister returns the bookings dated on a calendar day with one of the
// given statuses, with their user and service loaded.
type BookingLister interface {
	ListBookingsOn(ctx context.Context, date time.Time, statuses ...models.BookingStatus) ([]models.Booking, error)
}

// ReminderJob tells users about confirmed bookings dated tomorrow.
type ReminderJob struct {
	store    BookingLister
	notifier notifications.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewReminderJob(store BookingLister, notifier notifications.Notifier, log *zap.Logger) *ReminderJob {
	return &ReminderJob{store: store, notifier: notifier, log: log, now: time.Now}
}

func (j *ReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.SendReminders(ctx); err != nil {
		j.log.Error("reminder job failed", zap.Error(err))
	}
}

// SendReminders returns how many reminders were handed to the notifier.
func (j *ReminderJob) SendReminders(ctx context.Context) (int, error) {
	tomorrow := startOfDay(j.now()).AddDate(0, 0, 1)

	bookings, err := j.store.ListBookingsOn(ctx, tomorrow, models.BookingConfirmed)
	if err != nil {
		return 0, fmt.Errorf("list confirmed bookings: %w", err)
	}

	sent := 0
	for _, b := range bookings {
		if b.User == nil || b.Service == nil {
			continue
		}
		body := fmt.Sprintf("This is a friendly reminder that your %s session is tomorrow (%s) at %s.",
			b.Service.Title, b.DateLabel(), b.TimeSlot)
		if deliver(ctx, j.notifier, j.log, b.User, "Reminder: Your Session is Tomorrow!", body) {
			sent++
		}
	}

	j.log.Info("booking reminders sent", zap.Int("bookings", len(bookings)), zap.Int("sent", sent))
	return sent, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func deliver(ctx context.Context, n notifications.Notifier, log *zap.Logger, u *models.User, subject, body string) bool {
	to := notifications.Recipient{UserID: u.ID, Email: u.Email, Name: u.DisplayName()}
	if err := n.Notify(ctx, to, subject, body); err != nil {
		log.Warn("notification failed", zap.String("to", to.Email), zap.String("subject", subject), zap.Error(err))
		return false
	}
	return true
}
