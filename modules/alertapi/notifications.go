package alertapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/engine"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// filterFromQuery builds a list filter from query parameters. Unknown
// category or priority values simply match nothing, which surfaces as
// an empty list rather than an error.
func filterFromQuery(r *http.Request) notifier.Filter {
	q := r.URL.Query()
	var f notifier.Filter
	if v := q.Get("category"); v != "" {
		c := notifier.Category(v)
		f.Category = &c
	}
	if v := q.Get("priority"); v != "" {
		p := notifier.Priority(v)
		f.Priority = &p
	}
	f.UnreadOnly = q.Get("unread") == "true"
	f.Search = q.Get("search")
	return f
}

// ownNotification hides other users' notifications behind not-found.
func ownNotification(r *http.Request, eng *engine.Engine, id uuid.UUID) error {
	n, err := eng.GetNotification(r.Context(), id)
	if err != nil {
		return err
	}
	if n.UserID != userID(r) {
		return notifier.ErrNotFound
	}
	return nil
}

func listNotifications(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := eng.ListNotifications(r.Context(), userID(r), filterFromQuery(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func unreadCount(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := eng.CountUnread(r.Context(), userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"unread": count})
	}
}

func getStats(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := eng.GetStats(r.Context(), userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	}
}

func markAsRead(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, err)
			return
		}
		if err := ownNotification(r, eng, id); err != nil {
			respondError(w, err)
			return
		}
		n, err := eng.MarkAsRead(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, n)
	}
}

func markAllAsRead(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed, err := eng.MarkAllAsRead(r.Context(), userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"marked": changed})
	}
}

func deleteNotification(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, err)
			return
		}
		if err := ownNotification(r, eng, id); err != nil {
			respondError(w, err)
			return
		}
		if err := eng.DeleteNotification(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
