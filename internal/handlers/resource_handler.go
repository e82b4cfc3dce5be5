package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/services"
)

type ResourceHandler struct {
	Service *services.ResourceService
}

func NewResourceHandler(service *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{Service: service}
}

// POST /api/resources/group/{groupId}
func (h *ResourceHandler) AddResourceHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	groupID, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ResourceInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.Add(r.Context(), actor, groupID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/resources/group/{groupId}?q=
func (h *ResourceHandler) GroupResourcesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	groupID, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.ListForGroup(r.Context(), actor, groupID, r.URL.Query().Get("q"), paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/resources/{id}
func (h *ResourceHandler) ViewResourceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.View(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PUT /api/resources/{id}
func (h *ResourceHandler) UpdateResourceHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.ResourceUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Service.Update(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DELETE /api/resources/{id}
func (h *ResourceHandler) DeleteResourceHandler() http.HandlerFunc {
	return deleteByID(h.Service.Delete, "Resource deleted.")
}

// GET /api/resources/admin/list
func (h *ResourceHandler) AdminListResourcesHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.AdminList(r.Context(), paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// POST /api/resources/admin/{id}/hide
func (h *ResourceHandler) HideResourceHandler() http.HandlerFunc {
	return deleteByID(h.Service.Hide, "Resource hidden.")
}

// GET /api/resources/admin/analytics
func (h *ResourceHandler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Analytics(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
