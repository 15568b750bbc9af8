package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type TokenNotification struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
	Link      string
}

// Notifier is the email-dispatch capability. Dispatch is
// fire-and-forget from the caller's perspective: a send failure is
// logged, never surfaced as a request failure.
type Notifier interface {
	SendEmailVerification(ctx context.Context, n TokenNotification) error
	SendPasswordReset(ctx context.Context, n TokenNotification) error
}

// DevNotifier writes the links to the log instead of sending mail.
type DevNotifier struct {
	logger *slog.Logger
}

func NewDevNotifier(logger *slog.Logger) *DevNotifier {
	return &DevNotifier{logger: logger}
}

func (n *DevNotifier) SendEmailVerification(ctx context.Context, msg TokenNotification) error {
	n.logger.InfoContext(ctx, "email verification link issued",
		"user_id", msg.UserID,
		"email", msg.Email,
		"expires_at", msg.ExpiresAt,
		"link", msg.Link,
	)
	return nil
}

func (n *DevNotifier) SendPasswordReset(ctx context.Context, msg TokenNotification) error {
	n.logger.InfoContext(ctx, "password reset link issued",
		"user_id", msg.UserID,
		"email", msg.Email,
		"expires_at", msg.ExpiresAt,
		"link", msg.Link,
	)
	return nil
}
