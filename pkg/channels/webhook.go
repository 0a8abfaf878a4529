package channels

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/webhook"
)

// EndpointFunc resolves a user's webhook endpoint. Returning an empty
// URL means the user has no endpoint configured.
type EndpointFunc func(ctx context.Context, userID uuid.UUID) (string, error)

// WebhookAdapter posts notifications to per-user HTTP endpoints.
type WebhookAdapter struct {
	sender   *webhook.Sender
	endpoint EndpointFunc
}

// NewWebhookAdapter wires the sender to the endpoint directory.
func NewWebhookAdapter(sender *webhook.Sender, endpoint EndpointFunc) *WebhookAdapter {
	return &WebhookAdapter{sender: sender, endpoint: endpoint}
}

// Deliver posts the notification as JSON. The sender is configured with
// no internal retry; the router owns the retry policy. Malformed URLs
// and 4xx responses are permanent.
func (a *WebhookAdapter) Deliver(ctx context.Context, n notifier.Notification) error {
	url, err := a.endpoint(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("%w: resolve endpoint: %w", ErrDeliveryFailed, err)
	}
	if url == "" {
		return fmt.Errorf("%w: user %s has no webhook endpoint", ErrNoRecipient, n.UserID)
	}

	if err := a.sender.Send(ctx, url, n, webhook.WithNoRetry()); err != nil {
		if webhook.IsPermanent(err) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
