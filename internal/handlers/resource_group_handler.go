package handlers

import (
	"context"
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResourceGroupHandler serves the admin-only /api/resource-groups routes.
type ResourceGroupHandler struct {
	Service *services.ResourceGroupService
}

func NewResourceGroupHandler(service *services.ResourceGroupService) *ResourceGroupHandler {
	return &ResourceGroupHandler{Service: service}
}

// POST /api/resource-groups
func (h *ResourceGroupHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var in services.ResourceGroupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rg, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rg)
}

// GET /api/resource-groups
func (h *ResourceGroupHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GET /api/resource-groups/{id}
func (h *ResourceGroupHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rg, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rg)
}

// PUT /api/resource-groups/{id}
func (h *ResourceGroupHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ResourceGroupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rg, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rg)
}

// DELETE /api/resource-groups/{id}
func (h *ResourceGroupHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Resource group deleted.")
}

// pairHandler serves routes addressing the bundle {id} and one member
// document named by the second path variable.
func pairHandler(second string, fn func(ctx context.Context, id, other primitive.ObjectID) (*models.ResourceGroup, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		other, err := pathID(r, second)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rg, err := fn(r.Context(), id, other)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rg)
	}
}

// POST /api/resource-groups/{id}/resources/{resourceId}
func (h *ResourceGroupHandler) AddResourceHandler() http.HandlerFunc {
	return pairHandler("resourceId", h.Service.AddResource)
}

// DELETE /api/resource-groups/{id}/resources/{resourceId}
func (h *ResourceGroupHandler) RemoveResourceHandler() http.HandlerFunc {
	return pairHandler("resourceId", h.Service.RemoveResource)
}

// POST /api/resource-groups/{id}/groups/{groupId}
func (h *ResourceGroupHandler) LinkGroupHandler() http.HandlerFunc {
	return pairHandler("groupId", h.Service.LinkGroup)
}

// DELETE /api/resource-groups/{id}/groups/{groupId}
func (h *ResourceGroupHandler) UnlinkGroupHandler() http.HandlerFunc {
	return pairHandler("groupId", h.Service.UnlinkGroup)
}
