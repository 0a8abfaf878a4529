package alertapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/engine"
)

type ctxKey struct{}

// Router builds the JSON API over the engine.
func Router(eng *engine.Engine) chi.Router {
	r := chi.NewRouter()
	r.Use(requireUser)

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", listAlerts(eng))
		r.Post("/", createAlert(eng))
		r.Post("/{id}/toggle", toggleAlert(eng))
		r.Delete("/{id}", deleteAlert(eng))
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", listNotifications(eng))
		r.Get("/unread-count", unreadCount(eng))
		r.Get("/stats", getStats(eng))
		r.Post("/{id}/read", markAsRead(eng))
		r.Post("/read-all", markAllAsRead(eng))
		r.Delete("/{id}", deleteNotification(eng))
	})

	r.Route("/preferences", func(r chi.Router) {
		r.Get("/", listPreferences(eng))
		r.Get("/types", listTypes(eng))
		r.Put("/{typeID}", updatePreference(eng))
	})

	r.Route("/channels", func(r chi.Router) {
		r.Get("/", listChannels(eng))
		r.Put("/{id}", setChannelEnabled(eng))
		r.Post("/permissions/{kind}", requestPermission(eng))
	})

	return r
}

// requireUser resolves the acting user from the X-User-ID header set by
// the upstream auth layer.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			respondError(w, fmt.Errorf("%w: missing X-User-ID header", errBadRequest))
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid X-User-ID header", errBadRequest))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(ctxKey{}).(uuid.UUID)
	return id
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", errBadRequest)
	}
	return id, nil
}
