package channels

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/email"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// AddressFunc resolves a user's email address from the user directory.
// Returning an empty address means the user has no address on file.
type AddressFunc func(ctx context.Context, userID uuid.UUID) (string, error)

// EmailAdapter delivers notifications as transactional emails.
type EmailAdapter struct {
	sender  email.EmailSender
	address AddressFunc
}

// NewEmailAdapter wires the sender to the address directory.
func NewEmailAdapter(sender email.EmailSender, address AddressFunc) *EmailAdapter {
	return &EmailAdapter{sender: sender, address: address}
}

// Deliver sends the notification body as HTML email. A user without an
// address is a permanent failure; provider rejections are transient and
// left to the router's retry.
func (a *EmailAdapter) Deliver(ctx context.Context, n notifier.Notification) error {
	addr, err := a.address(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("%w: resolve address: %w", ErrDeliveryFailed, err)
	}
	if addr == "" {
		return fmt.Errorf("%w: user %s has no email address", ErrNoRecipient, n.UserID)
	}

	err = a.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  n.Title,
		BodyHTML: fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(n.Title), html.EscapeString(n.Message)),
		Tag:      string(n.Category),
	})
	if err != nil {
		if errors.Is(err, email.ErrInvalidParams) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
