package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	"github.com/Dias221467/Saviya_Learn/pkg/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FeedbackHandler struct {
	Service *services.FeedbackService
}

func NewFeedbackHandler(service *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{Service: service}
}

// clientIP prefers the first X-Forwarded-For hop set by the proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// POST /api/feedback. Anonymous submissions are accepted; a valid bearer
// token attributes the feedback to its user.
func (h *FeedbackHandler) CreateFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var in services.FeedbackInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	origin := services.FeedbackOrigin{IP: clientIP(r), UserAgent: r.UserAgent()}
	if claims := middleware.GetUserFromContext(r.Context()); claims != nil {
		if id, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
			origin.UserID = &id
		}
	}
	fb, err := h.Service.Create(r.Context(), in, origin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// GET /api/feedback (admin)
func (h *FeedbackHandler) ListFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Service.List(r.Context(), models.FeedbackFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
	}, paginate(r, 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/feedback/{id} (admin)
func (h *FeedbackHandler) GetFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	fb, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// PUT /api/feedback/{id} (admin)
func (h *FeedbackHandler) UpdateFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.FeedbackUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	fb, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// DELETE /api/feedback/{id} (admin)
func (h *FeedbackHandler) DeleteFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Feedback deleted.")
}
