package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// POST /api/reports
func (h *ReportHandler) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ReportInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.Service.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// GET /api/reports/mine
func (h *ReportHandler) MyReportsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.Mine(r.Context(), actor, paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/reports (admin)
func (h *ReportHandler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Service.List(r.Context(), models.ReportFilter{
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}, paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/reports/{id} (admin)
func (h *ReportHandler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// PATCH /api/reports/{id}/status (admin)
func (h *ReportHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
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
	var in struct {
		Status     string `json:"status"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.Service.UpdateStatus(r.Context(), actor, id, in.Status, in.AdminNotes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// PATCH /api/reports/bulk/status (admin)
func (h *ReportHandler) BulkUpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		ReportIDs []string `json:"reportIds"`
		Status    string   `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.Service.BulkUpdateStatus(r.Context(), actor, in.ReportIDs, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modified": n})
}

// POST /api/reports/{id}/action (admin)
func (h *ReportHandler) TakeActionHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.TakeActionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.Service.TakeAction(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"reportID": id.Hex(),
		"action":   in.Action,
		"by":       actor.ID.Hex(),
	}).Info("Report action taken")
	writeJSON(w, http.StatusOK, rep)
}

// DELETE /api/reports/{id} (admin)
func (h *ReportHandler) DeleteReportHandler() http.HandlerFunc {
	return deleteByID(h.Service.Delete, "Report deleted.")
}

// GET /api/reports/admin/stats
func (h *ReportHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
