package webhook

import (
	"net/http"
	"time"
)

// DeliveryResult describes a single webhook delivery attempt.
type DeliveryResult struct {
	Success    bool
	StatusCode int
	Attempt    int
	Duration   time.Duration
	Error      error
}

// DeliveryHook is called after each delivery attempt.
type DeliveryHook func(result DeliveryResult)

type sendOptions struct {
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client

	maxRetries      int
	backoffStrategy BackoffStrategy

	signatureSecret string

	onDelivery DeliveryHook
}

// Defaults match the notification delivery policy: one retry after a
// short fixed backoff.
func defaultSendOptions() *sendOptions {
	return &sendOptions{
		timeout:         10 * time.Second,
		headers:         make(map[string]string),
		maxRetries:      1,
		backoffStrategy: DefaultBackoffStrategy(),
	}
}

// SendOption configures a single webhook send.
type SendOption func(*sendOptions)

// WithTimeout sets the per-request HTTP timeout. Default is 10 seconds.
func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader adds a custom header to the webhook request.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithFixedRetry configures retry count and a fixed interval between attempts.
func WithFixedRetry(attempts int, interval time.Duration) SendOption {
	return func(o *sendOptions) {
		if attempts >= 0 {
			o.maxRetries = attempts
			o.backoffStrategy = FixedBackoff{Interval: interval}
		}
	}
}

// WithBackoff sets a custom backoff strategy for retries.
func WithBackoff(strategy BackoffStrategy) SendOption {
	return func(o *sendOptions) {
		if strategy != nil {
			o.backoffStrategy = strategy
		}
	}
}

// WithNoRetry disables all retry attempts.
func WithNoRetry() SendOption {
	return func(o *sendOptions) {
		o.maxRetries = 0
	}
}

// WithSignature enables HMAC-SHA256 request signing with the given secret.
// Adds X-Webhook-Signature, X-Webhook-Timestamp, and X-Webhook-ID headers.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) {
		o.signatureSecret = secret
	}
}

// WithHTTPClient overrides the HTTP client for this send.
// Useful for custom transports or testing.
func WithHTTPClient(client *http.Client) SendOption {
	return func(o *sendOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithOnDelivery sets a callback invoked after each delivery attempt.
func WithOnDelivery(hook DeliveryHook) SendOption {
	return func(o *sendOptions) {
		o.onDelivery = hook
	}
}
