package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
	"github.com/sirupsen/logrus"
)

type SessionHandler struct {
	Service *services.SessionService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{Service: service}
}

// POST /api/sessions
func (h *SessionHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.CreateSessionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.Service.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"sessionID": session.ID.Hex(),
		"groupID":   session.GroupID.Hex(),
	}).Info("Session scheduled")
	writeJSON(w, http.StatusCreated, session)
}

// GET /api/sessions/{id}
func (h *SessionHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GET /api/sessions/group/{groupId}
func (h *SessionHandler) GroupSessionsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.ListForGroup(r.Context(), groupID, r.URL.Query().Get("status"), paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PUT /api/sessions/{id}
func (h *SessionHandler) UpdateSessionHandler(w http.ResponseWriter, r *http.Request) {
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
	var in services.UpdateSessionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.Service.Update(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// POST /api/sessions/{id}/start
func (h *SessionHandler) StartSessionHandler() http.HandlerFunc {
	return actOnID(h.Service.Start)
}

// POST /api/sessions/{id}/end
func (h *SessionHandler) EndSessionHandler() http.HandlerFunc {
	return actOnID(h.Service.End)
}

// POST /api/sessions/{id}/cancel
func (h *SessionHandler) CancelSessionHandler() http.HandlerFunc {
	return actOnID(h.Service.Cancel)
}

// POST /api/sessions/{id}/join
func (h *SessionHandler) JoinSessionHandler() http.HandlerFunc {
	return actOnID(h.Service.Join)
}

// POST /api/sessions/{id}/leave
func (h *SessionHandler) LeaveSessionHandler() http.HandlerFunc {
	return actOnID(h.Service.Leave)
}

// DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSessionHandler() http.HandlerFunc {
	return deleteByID(h.Service.Delete, "Session deleted.")
}

// GET /api/sessions/admin/list
func (h *SessionHandler) AdminListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryID(r, "groupId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	teacherID, err := queryID(r, "teacherId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.Service.AdminList(r.Context(), models.SessionFilter{
		GroupID:   groupID,
		TeacherID: teacherID,
		Status:    r.URL.Query().Get("status"),
	}, paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// POST /api/sessions/{id}/status (admin)
func (h *SessionHandler) AdminSetStatusHandler(w http.ResponseWriter, r *http.Request) {
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
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := h.Service.AdminSetStatus(r.Context(), actor, id, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
