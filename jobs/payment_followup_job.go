package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/notifications"
)

const followUpDays = 3

// PaymentFollowUpJob nudges users whose payment failed for a booking dated
// today or in the next two days.
type PaymentFollowUpJob struct {
	store    BookingLister
	notifier notifications.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewPaymentFollowUpJob(store BookingLister, notifier notifications.Notifier, log *zap.Logger) *PaymentFollowUpJob {
	return &PaymentFollowUpJob{store: store, notifier: notifier, log: log, now: time.Now}
}

func (j *PaymentFollowUpJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.SendFollowUps(ctx); err != nil {
		j.log.Error("payment follow-up job failed", zap.Error(err))
	}
}

func (j *PaymentFollowUpJob) SendFollowUps(ctx context.Context) (int, error) {
	today := startOfDay(j.now())

	sent := 0
	for offset := 0; offset < followUpDays; offset++ {
		bookings, err := j.store.ListBookingsOn(ctx, today.AddDate(0, 0, offset), models.BookingPending)
		if err != nil {
			return sent, fmt.Errorf("list pending bookings: %w", err)
		}
		for _, b := range bookings {
			if b.PaymentStatus != models.PaymentFailed || b.User == nil || b.Service == nil {
				continue
			}
			body := fmt.Sprintf("Your booking #%s for %s on %s at %s is not paid yet. Please retry the payment to confirm your spot.",
				b.ID, b.Service.Title, b.DateLabel(), b.TimeSlot)
			if deliver(ctx, j.notifier, j.log, b.User, "Complete Your Payment", body) {
				sent++
			}
		}
	}

	j.log.Info("payment follow-ups sent", zap.Int("sent", sent))
	return sent, nil
}
