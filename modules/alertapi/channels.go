package alertapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HyperCogAI/alertkit/pkg/channels"
	"github.com/HyperCogAI/alertkit/pkg/engine"
)

func listChannels(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, eng.ListChannels())
	}
}

type setChannelEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func setChannelEnabled(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setChannelEnabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, fmt.Errorf("%w: invalid JSON body", errBadRequest))
			return
		}
		ch, err := eng.SetChannelEnabled(r.Context(), chi.URLParam(r, "id"), req.Enabled)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ch)
	}
}

func requestPermission(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := channels.Kind(chi.URLParam(r, "kind"))
		permission := eng.RequestChannelPermission(r.Context(), kind)
		respondJSON(w, http.StatusOK, map[string]string{"permission": string(permission)})
	}
}
