package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /api/notifications
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Service.List(r.Context(), actor.ID, models.NotificationFilter{
		Type:     q.Get("type"),
		Priority: q.Get("priority"),
		Read:     queryBool(r, "read"),
	}, paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.UnreadCount(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.MarkAsRead(r.Context(), actor.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.MarkAllAsRead(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "All notifications marked as read",
		"modifiedCount": n,
	})
}

// DELETE /api/notifications/{id}
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), actor.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification deleted")
}

// DELETE /api/notifications/read
func (h *NotificationHandler) DeleteReadHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.DeleteAllRead(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Read notifications deleted",
		"deletedCount": n,
	})
}

// GET /api/notifications/preferences
func (h *NotificationHandler) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := h.Service.GetPreferences(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// PUT /api/notifications/preferences. The body is decoded onto the stored
// preferences, so nested objects merge field by field.
func (h *NotificationHandler) UpdatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := h.Service.GetPreferences(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := decodeJSON(r, prefs); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.Service.UpdatePreferences(r.Context(), actor.ID, prefs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// POST /api/notifications/admin/send
func (h *NotificationHandler) AdminSendHandler(w http.ResponseWriter, r *http.Request) {
	var in services.AdminSendInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.AdminSend(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Notifications sent",
		"count":   n,
	})
}

// POST /api/notifications/admin/broadcast
func (h *NotificationHandler) AdminBroadcastHandler(w http.ResponseWriter, r *http.Request) {
	var in services.AdminSendInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.AdminBroadcast(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Log.WithField("count", n).Info("Admin broadcast sent")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Broadcast sent",
		"count":   n,
	})
}

// GET /api/notifications/admin/stats
func (h *NotificationHandler) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
