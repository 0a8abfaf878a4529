package channels

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// PushProvider sends a platform push notification. Implementations wrap
// APNs, FCM, or a browser push service.
type PushProvider interface {
	SendPush(ctx context.Context, userID uuid.UUID, title, message string) error
}

// GrantedFunc reports whether the user has granted push consent.
type GrantedFunc func(ctx context.Context, userID uuid.UUID) bool

// PushAdapter delivers via a push provider, gated on per-user consent.
type PushAdapter struct {
	provider PushProvider
	granted  GrantedFunc
}

// NewPushAdapter wires a provider to the consent source. A nil granted
// func treats every user as consented.
func NewPushAdapter(provider PushProvider, granted GrantedFunc) *PushAdapter {
	return &PushAdapter{provider: provider, granted: granted}
}

// Deliver sends the push. A user without consent is a permanent
// failure; the router must not retry its way past a denial.
func (a *PushAdapter) Deliver(ctx context.Context, n notifier.Notification) error {
	if a.granted != nil && !a.granted(ctx, n.UserID) {
		return fmt.Errorf("%w: push consent not granted for user %s", ErrPermanentFailure, n.UserID)
	}
	if err := a.provider.SendPush(ctx, n.UserID, n.Title, n.Message); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
