package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
)

type RequestHandler struct {
	Service *services.ResourceRequestService
}

func NewRequestHandler(service *services.ResourceRequestService) *RequestHandler {
	return &RequestHandler{Service: service}
}

// POST /api/resource-requests
func (h *RequestHandler) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.RequestInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.Service.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// GET /api/resource-requests, also mounted as the admin list.
func (h *RequestHandler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryID(r, "groupId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, err := h.Service.List(r.Context(), models.RequestFilter{
		Status:  q.Get("status"),
		Subject: q.Get("subject"),
		Topic:   q.Get("topic"),
		GroupID: groupID,
	}, paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/resource-requests/mine
func (h *RequestHandler) MyRequestsHandler(w http.ResponseWriter, r *http.Request) {
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

// GET /api/resource-requests/{id}
func (h *RequestHandler) GetRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// PUT /api/resource-requests/{id}
func (h *RequestHandler) UpdateRequestHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.RequestUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.Service.Update(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DELETE /api/resource-requests/{id}
func (h *RequestHandler) DeleteRequestHandler() http.HandlerFunc {
	return deleteByID(h.Service.Delete, "Request deleted.")
}

// POST /api/resource-requests/{id}/respond
func (h *RequestHandler) RespondHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.RespondInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.Service.Respond(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// POST /api/resource-requests/{id}/fulfill
func (h *RequestHandler) FulfillHandler() http.HandlerFunc {
	return actOnID(h.Service.Fulfill)
}

// POST /api/resource-requests/{id}/reopen
func (h *RequestHandler) ReopenHandler() http.HandlerFunc {
	return actOnID(h.Service.Reopen)
}

// POST /api/resource-requests/{id}/close
func (h *RequestHandler) CloseHandler() http.HandlerFunc {
	return actOnID(h.Service.Close)
}

// GET /api/resource-requests/admin/stats
func (h *RequestHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
