package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
	"github.com/sirupsen/logrus"
)

type GroupHandler struct {
	Service *services.GroupService
}

func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{Service: service}
}

func groupFilter(r *http.Request) models.GroupFilter {
	q := r.URL.Query()
	return models.GroupFilter{
		Grade:   q.Get("grade"),
		Subject: q.Get("subject"),
		Topic:   q.Get("topic"),
		Query:   q.Get("q"),
		Status:  q.Get("status"),
	}
}

// POST /api/groups
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.CreateGroupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	group, err := h.Service.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Log.WithFields(logrus.Fields{"groupID": group.ID.Hex(), "owner": actor.ID.Hex()}).Info("Group created")
	writeJSON(w, http.StatusCreated, group)
}

// GET /api/groups/{id}
func (h *GroupHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	group, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// POST /api/groups/{id}/join
func (h *GroupHandler) JoinGroupHandler() http.HandlerFunc {
	return actOnID(h.Service.Join)
}

// POST /api/groups/{id}/leave
func (h *GroupHandler) LeaveGroupHandler() http.HandlerFunc {
	return actOnID(h.Service.Leave)
}

// POST /api/groups/{id}/invite
func (h *GroupHandler) InviteHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.InviteInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Invite(r.Context(), actor, id, in); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Invitation sent.")
}

// GET /api/groups/search
func (h *GroupHandler) SearchGroupsHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.Search(r.Context(), groupFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// GET /api/groups/my
func (h *GroupHandler) MyGroupsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	groups, err := h.Service.MyGroups(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// PATCH /api/groups/{id}/members/{userId}/role
func (h *GroupHandler) ChangeMemberRoleHandler(w http.ResponseWriter, r *http.Request) {
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
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	group, err := h.Service.ChangeRole(r.Context(), actor, id, userID, in.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// DELETE /api/groups/{id}/members/{userId}
func (h *GroupHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	group, err := h.Service.RemoveMember(r.Context(), actor, id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// GET /api/groups (admin)
func (h *GroupHandler) AdminListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.AdminList(r.Context(), groupFilter(r), paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PUT /api/groups/{id} (admin)
func (h *GroupHandler) AdminUpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.AdminGroupUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	group, err := h.Service.AdminUpdate(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// DELETE /api/groups/{id} (admin). ?archive=true archives instead.
func (h *GroupHandler) AdminDeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
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
	archive := r.URL.Query().Get("archive") == "true"
	if err := h.Service.AdminDelete(r.Context(), actor, id, archive); err != nil {
		writeError(w, r, err)
		return
	}
	if archive {
		writeMessage(w, http.StatusOK, "Group archived.")
		return
	}
	writeMessage(w, http.StatusOK, "Group deleted.")
}
