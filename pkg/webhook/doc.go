// Package webhook delivers JSON payloads to user-configured HTTP
// endpoints with bounded retries and HMAC signing.
//
// The webhook delivery channel posts each notification exactly once per
// dispatch, retrying only transient failures:
//
//	sender := webhook.NewSender()
//	err := sender.Send(ctx, url, payload,
//	    webhook.WithSignature(secret),
//	    webhook.WithFixedRetry(1, 2*time.Second),
//	)
//
// Permanent failures (malformed URLs, most 4xx responses) are reported
// immediately via ErrPermanentFailure so callers can record them without
// wasting retry attempts.
package webhook
