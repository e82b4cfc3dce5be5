package handlers

import (
	"net/http"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/services"
)

type ChatHandler struct {
	Service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

// POST /api/chat/groups/{groupId}/messages
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.SendMessageInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.Service.Send(r.Context(), actor, groupID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// GET /api/chat/groups/{groupId}/messages?before=
func (h *ChatHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
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
	before, err := queryTime(r, "before")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.List(r.Context(), actor, groupID, before, paginate(r, 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/chat/groups/{groupId}/unread?lastSeen=
func (h *ChatHandler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
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
	lastSeen, err := queryTime(r, "lastSeen")
	if err != nil {
		writeError(w, r, err)
		return
	}
	since := time.Time{}
	if lastSeen != nil {
		since = *lastSeen
	}
	n, err := h.Service.UnreadCount(r.Context(), actor, groupID, since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

// PUT /api/chat/messages/{id}
func (h *ChatHandler) EditMessageHandler(w http.ResponseWriter, r *http.Request) {
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
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.Service.Edit(r.Context(), actor, id, in.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// DELETE /api/chat/messages/{id}
func (h *ChatHandler) DeleteMessageHandler() http.HandlerFunc {
	return deleteByID(h.Service.Delete, "Message deleted.")
}

// GET /api/chat/admin/messages?groupId=
func (h *ChatHandler) AdminListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryID(r, "groupId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.AdminList(r.Context(), groupID, paginate(r, 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// POST /api/chat/admin/messages/{id}/hide
func (h *ChatHandler) HideMessageHandler() http.HandlerFunc {
	return deleteByID(h.Service.Hide, "Message hidden.")
}
