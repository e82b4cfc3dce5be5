package handlers

import (
	"net/http"

	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/realtime"
	jwtutil "github.com/Dias221467/Saviya_Learn/pkg/jwt"
	"github.com/Dias221467/Saviya_Learn/pkg/logger"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RealtimeHandler upgrades authenticated clients onto the realtime hub.
type RealtimeHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
	upgrader  websocket.Upgrader
}

// NewRealtimeHandler accepts websocket handshakes from origins. An empty
// list accepts any origin.
func NewRealtimeHandler(hub *realtime.Hub, jwtSecret string, origins []string) *RealtimeHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &RealtimeHandler{
		Hub:       hub,
		JWTSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin] || allowed["*"]
			},
		},
	}
}

// GET /ws?token=
func (h *RealtimeHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "Missing token")
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Debug("WebSocket auth failed")
		writeMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := realtime.NewClient(h.Hub, conn, userID)
	h.Hub.Register(c, authz.IsAdmin(claims.Role))
	c.Start()
}
