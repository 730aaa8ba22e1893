package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/anjiri1684/wellness_booking/models"
	"github.com/anjiri1684/wellness_booking/notifications"
)

func recipientOf(u *models.User) notifications.Recipient {
	return notifications.Recipient{UserID: u.ID, Email: u.Email, Name: u.DisplayName()}
}

// notify never fails the calling operation; delivery problems are only logged.
func notify(ctx context.Context, n notifications.Notifier, log *zap.Logger, to notifications.Recipient, subject, body string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, to, subject, body); err != nil {
		log.Warn("notification failed",
			zap.String("to", to.Email),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
