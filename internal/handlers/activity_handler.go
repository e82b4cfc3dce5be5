package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
)

type ActivityHandler struct {
	Activity  *services.ActivityService
	Analytics *services.AnalyticsService
}

func NewActivityHandler(activity *services.ActivityService, analytics *services.AnalyticsService) *ActivityHandler {
	return &ActivityHandler{Activity: activity, Analytics: analytics}
}

func activityFilter(r *http.Request) (models.ActivityFilter, error) {
	var f models.ActivityFilter
	var err error
	if f.UserID, err = queryID(r, "userId"); err != nil {
		return f, err
	}
	if f.From, err = queryTime(r, "startDate"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "endDate"); err != nil {
		return f, err
	}
	f.ActionType = r.URL.Query().Get("actionType")
	return f, nil
}

// GET /api/activity-logs (admin)
func (h *ActivityHandler) ListActivityHandler(w http.ResponseWriter, r *http.Request) {
	f, err := activityFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Activity.List(r.Context(), f, paginate(r, 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/activity-logs/me
func (h *ActivityHandler) MyActivityHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := activityFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f.UserID = &actor.ID
	page, err := h.Activity.List(r.Context(), f, paginate(r, 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/analytics/overview (admin)
func (h *ActivityHandler) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Analytics.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
