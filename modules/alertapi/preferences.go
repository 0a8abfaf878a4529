package alertapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HyperCogAI/alertkit/pkg/engine"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
)

type updatePreferenceRequest struct {
	Enabled    bool              `json:"enabled"`
	Channels   []string          `json:"channels"`
	QuietHours *prefs.QuietHours `json:"quiet_hours,omitempty"`
}

func listPreferences(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, eng.ListPreferences(r.Context(), userID(r)))
	}
}

func listTypes(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, eng.NotificationTypes())
	}
}

func updatePreference(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updatePreferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, fmt.Errorf("%w: invalid JSON body", errBadRequest))
			return
		}

		pref, err := eng.UpdatePreference(r.Context(), prefs.Preference{
			UserID:     userID(r),
			TypeID:     chi.URLParam(r, "typeID"),
			Enabled:    req.Enabled,
			Channels:   req.Channels,
			QuietHours: req.QuietHours,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, pref)
	}
}
