package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/webhook"
)

type triggerPayload struct {
	AlertID    string `json:"alert_id"`
	Instrument string `json:"instrument"`
}

func TestSender_Send_Success(t *testing.T) {
	t.Parallel()

	var received triggerPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := webhook.NewSender()
	err := sender.Send(context.Background(), srv.URL, triggerPayload{AlertID: "a1", Instrument: "BTC"})
	require.NoError(t, err)
	assert.Equal(t, "a1", received.AlertID)
}

func TestSender_Send_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := webhook.NewSender()
	err := sender.Send(context.Background(), srv.URL, triggerPayload{AlertID: "a1"},
		webhook.WithFixedRetry(1, 10*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_Send_PermanentFailureNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sender := webhook.NewSender()
	err := sender.Send(context.Background(), srv.URL, triggerPayload{AlertID: "a1"},
		webhook.WithFixedRetry(3, time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, webhook.ErrPermanentFailure)
	assert.True(t, webhook.IsPermanent(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSender_Send_ExhaustedRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := webhook.NewSender()
	err := sender.Send(context.Background(), srv.URL, triggerPayload{AlertID: "a1"},
		webhook.WithFixedRetry(1, time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, webhook.ErrDeliveryFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_Send_InvalidURL(t *testing.T) {
	t.Parallel()

	sender := webhook.NewSender()

	for _, badURL := range []string{"", "ftp://example.com/hook", "http://"} {
		err := sender.Send(context.Background(), badURL, triggerPayload{})
		assert.ErrorIs(t, err, webhook.ErrInvalidURL, "url %q", badURL)
		assert.True(t, webhook.IsPermanent(err))
	}
}

func TestSender_Send_SignatureHeaders(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Webhook-Signature"))
		assert.NotEmpty(t, r.Header.Get("X-Webhook-Timestamp"))
		assert.NotEmpty(t, r.Header.Get("X-Webhook-ID"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := webhook.NewSender()
	err := sender.Send(context.Background(), srv.URL, triggerPayload{AlertID: "a1"},
		webhook.WithSignature(secret),
	)
	require.NoError(t, err)
}

func TestSender_Send_OnDeliveryHook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var results []webhook.DeliveryResult
	sender := webhook.NewSender()
	err := sender.Send(context.Background(), srv.URL, triggerPayload{AlertID: "a1"},
		webhook.WithOnDelivery(func(r webhook.DeliveryResult) {
			results = append(results, r)
		}),
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
	assert.Equal(t, 1, results[0].Attempt)
}

func TestSignAndVerifyPayload(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"alert_id":"a1"}`)

	headers, err := webhook.SignPayload("secret", payload)
	require.NoError(t, err)

	require.NoError(t, webhook.VerifySignature("secret", payload, headers, time.Minute))

	err = webhook.VerifySignature("wrong-secret", payload, headers, time.Minute)
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)

	err = webhook.VerifySignature("secret", []byte(`tampered`), headers, time.Minute)
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
}

func TestBackoffStrategies(t *testing.T) {
	t.Parallel()

	fixed := webhook.FixedBackoff{Interval: 2 * time.Second}
	assert.Equal(t, time.Duration(0), fixed.NextInterval(0))
	assert.Equal(t, 2*time.Second, fixed.NextInterval(1))
	assert.Equal(t, 2*time.Second, fixed.NextInterval(5))

	exp := webhook.ExponentialBackoff{InitialInterval: time.Second, MaxInterval: 4 * time.Second}
	assert.Equal(t, time.Second, exp.NextInterval(1))
	assert.Equal(t, 2*time.Second, exp.NextInterval(2))
	assert.Equal(t, 4*time.Second, exp.NextInterval(3))
	assert.Equal(t, 4*time.Second, exp.NextInterval(10))
}
