package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

// Notifier delivers a user-facing message. Callers treat delivery as best effort.
type Notifier interface {
	Notify(ctx context.Context, to Recipient, subject, body string) error
}

// LogNotifier writes the message to the log instead of delivering it.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, to Recipient, subject, body string) error {
	n.log.Info("mock email sent",
		zap.String("to", to.Email),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, to Recipient, subject, body string) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, to, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message is the payload queued for out-of-process mailers.
type Message struct {
	To      Recipient `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}
