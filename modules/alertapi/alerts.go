package alertapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/engine"
)

type createAlertRequest struct {
	InstrumentID string          `json:"instrument_id"`
	Condition    string          `json:"condition"`
	Target       decimal.Decimal `json:"target"`
}

type toggleAlertRequest struct {
	Active bool `json:"active"`
}

// ownAlert hides other users' alerts behind a not-found answer.
func ownAlert(r *http.Request, eng *engine.Engine, id uuid.UUID) error {
	alert, err := eng.GetAlert(r.Context(), id)
	if err != nil {
		return err
	}
	if alert.UserID != userID(r) {
		return alerts.ErrNotFound
	}
	return nil
}

func listAlerts(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := eng.ListAlerts(r.Context(), userID(r))
		respondJSON(w, http.StatusOK, list)
	}
}

func createAlert(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, fmt.Errorf("%w: invalid JSON body", errBadRequest))
			return
		}

		alert, err := eng.CreateAlert(r.Context(), userID(r), req.InstrumentID,
			alerts.ConditionKind(req.Condition), req.Target)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, alert)
	}
}

func toggleAlert(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, err)
			return
		}
		var req toggleAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, fmt.Errorf("%w: invalid JSON body", errBadRequest))
			return
		}
		if err := ownAlert(r, eng, id); err != nil {
			respondError(w, err)
			return
		}

		alert, err := eng.ToggleAlert(r.Context(), id, req.Active)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, alert)
	}
}

func deleteAlert(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, err)
			return
		}
		if err := ownAlert(r, eng, id); err != nil {
			respondError(w, err)
			return
		}
		if err := eng.DeleteAlert(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
