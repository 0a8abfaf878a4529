package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender delivers webhook payloads with retry support.
// Zero value is not usable; use NewSender.
type Sender struct {
	// client is reused across requests for connection pooling
	client *http.Client
}

// NewSender creates a webhook sender with a pooled HTTP client.
func NewSender() *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: 30 * time.Second, // overridden per request by WithTimeout
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewSenderWithClient creates a webhook sender with a custom HTTP client.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		return NewSender()
	}
	return &Sender{client: client}
}

// Send marshals data to JSON and POSTs it to webhookURL.
// Transient failures are retried per the configured backoff; permanent
// failures (invalid URL, most 4xx responses) return immediately wrapped
// in ErrPermanentFailure.
func (s *Sender) Send(ctx context.Context, webhookURL string, data any, opts ...SendOption) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if err := validateURL(webhookURL); err != nil {
		return err
	}

	options := defaultSendOptions()
	for _, opt := range opts {
		opt(options)
	}

	client := s.client
	if options.httpClient != nil {
		client = options.httpClient
	}

	var lastErr error
	for attempt := 0; attempt <= options.maxRetries; attempt++ {
		if attempt > 0 {
			delay := options.backoffStrategy.NextInterval(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := s.attemptDelivery(ctx, client, webhookURL, payload, options)

		if options.onDelivery != nil {
			result.Attempt = attempt + 1
			options.onDelivery(result)
		}

		if err == nil {
			return nil
		}

		lastErr = err

		// 4xx responses won't change on retry; stop burning attempts.
		if isPermanentStatus(result.StatusCode) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, options.maxRetries+1, lastErr)
}

func validateURL(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	// Restrict to HTTP/HTTPS to prevent SSRF via exotic schemes.
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return nil
}

func (s *Sender) attemptDelivery(ctx context.Context, client *http.Client, webhookURL string, payload []byte, options *sendOptions) (DeliveryResult, error) {
	start := time.Now()
	result := DeliveryResult{}

	reqCtx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = err
		return result, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "alertkit-webhook/1.0")

	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	if options.signatureSecret != "" {
		sigHeaders, err := SignPayload(options.signatureSecret, payload)
		if err != nil {
			result.Duration = time.Since(start)
			result.Error = err
			return result, fmt.Errorf("failed to sign payload: %w", err)
		}
		for k, v := range sigHeaders.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err
		if reqCtx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return result, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}

	defer func() { _ = resp.Body.Close() }()
	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	// 64KB cap keeps error context without unbounded reads.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024*64))

	if !result.Success {
		errMsg := fmt.Sprintf("webhook returned status %d", resp.StatusCode)
		if len(body) > 0 {
			bodyStr := strings.ReplaceAll(string(body), "\n", " ")
			if len(bodyStr) > 200 {
				bodyStr = bodyStr[:200] + "..."
			}
			errMsg += ": " + bodyStr
		}
		result.Error = fmt.Errorf("%s", errMsg)
		return result, result.Error
	}

	return result, nil
}

// isPermanentStatus reports whether an HTTP status should not be retried.
// Rate limiting and server-timing 4xx codes remain retryable.
func isPermanentStatus(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
			return false
		default:
			return true
		}
	}
	return false
}
