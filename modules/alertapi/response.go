package alertapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/channels"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
)

// jsonBody is the response envelope: data on success, error on failure.
type jsonBody struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonBody{Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonBody{Error: &errorDetail{
		Code:    code,
		Message: err.Error(),
	}})
}

// classify maps domain errors to HTTP status codes and stable error
// codes clients can switch on.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, alerts.ErrAlreadyTriggered):
		return http.StatusConflict, "already_triggered"
	case errors.Is(err, alerts.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, alerts.ErrNotFound),
		errors.Is(err, notifier.ErrNotFound),
		errors.Is(err, channels.ErrChannelNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, alerts.ErrValidation),
		errors.Is(err, notifier.ErrValidation),
		errors.Is(err, prefs.ErrValidation),
		errors.Is(err, prefs.ErrUnknownType),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

var errBadRequest = errors.New("alertapi: bad request")
