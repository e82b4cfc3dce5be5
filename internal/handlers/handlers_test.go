package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/realtime"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/Dias221467/Saviya_Learn/internal/services"
	jwtutil "github.com/Dias221467/Saviya_Learn/pkg/jwt"
	"github.com/Dias221467/Saviya_Learn/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

func withClaims(r *http.Request, id primitive.ObjectID, role string) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), &jwtutil.Claims{UserID: id.Hex(), Role: role}))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestWriteErrorStatusAndBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	t.Run("validation fields", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, req, apperr.ValidationFields("title is required.", map[string]string{"title": "is required"}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "title is required.", body["message"])
		assert.Equal(t, "is required", body["fields"].(map[string]interface{})["title"])
	})

	t.Run("internal stays generic", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, req, apperr.Internal(errors.New("mongo exploded")))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "mongo")
		assert.Equal(t, "Server error", decodeBody(t, rr)["message"])
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeError(rr, req, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestDecodeJSON(t *testing.T) {
	var in struct {
		Name string `json:"name"`
	}
	in.Name = "kept"
	require.NoError(t, decodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &in))
	assert.Equal(t, "kept", in.Name)

	err := decodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad")), &in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPaginateClamps(t *testing.T) {
	p := paginate(httptest.NewRequest(http.MethodGet, "/?page=0&limit=500", nil), 20)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Limit)

	p = paginate(httptest.NewRequest(http.MethodGet, "/", nil), 20)
	assert.Equal(t, 20, p.Limit)
}

func TestQueryTimeAcceptsDates(t *testing.T) {
	ts, err := queryTime(httptest.NewRequest(http.MethodGet, "/?from=2024-03-01", nil), "from")
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())

	_, err = queryTime(httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil), "from")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestActOnID(t *testing.T) {
	callerID := primitive.NewObjectID()
	docID := primitive.NewObjectID()

	router := mux.NewRouter()
	router.Handle("/things/{id}", actOnID(func(_ context.Context, actor services.Actor, id primitive.ObjectID) (map[string]string, error) {
		if id != docID {
			return nil, apperr.NotFound("Thing not found.")
		}
		return map[string]string{"actor": actor.ID.Hex(), "role": actor.Role}, nil
	}))

	t.Run("ok", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withClaims(httptest.NewRequest(http.MethodPost, "/things/"+docID.Hex(), nil), callerID, "admin"))
		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, callerID.Hex(), body["actor"])
		assert.Equal(t, "admin", body["role"])
	})

	t.Run("service error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withClaims(httptest.NewRequest(http.MethodPost, "/things/"+primitive.NewObjectID().Hex(), nil), callerID, "user"))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withClaims(httptest.NewRequest(http.MethodPost, "/things/nope", nil), callerID, "user"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/things/"+docID.Hex(), nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

type memFeedback struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Feedback
}

func newMemFeedback() *memFeedback {
	return &memFeedback{items: make(map[primitive.ObjectID]*models.Feedback)}
}

func (m *memFeedback) Create(_ context.Context, fb *models.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb.ID = primitive.NewObjectID()
	fb.CreatedAt = time.Now()
	cp := *fb
	m.items[fb.ID] = &cp
	return nil
}

func (m *memFeedback) GetByID(_ context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *fb
	return &cp, nil
}

func (m *memFeedback) List(_ context.Context, _ models.FeedbackFilter, _ models.Pagination) ([]models.Feedback, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Feedback, 0, len(m.items))
	for _, fb := range m.items {
		out = append(out, *fb)
	}
	return out, int64(len(out)), nil
}

func (m *memFeedback) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fb, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if v, ok := fields["status"].(string); ok {
		fb.Status = v
	}
	if v, ok := fields["admin_response"].(string); ok {
		fb.AdminResponse = v
	}
	cp := *fb
	return &cp, nil
}

func (m *memFeedback) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type activityCalls struct {
	mu      sync.Mutex
	actions []string
}

func (a *activityCalls) Log(_ context.Context, _ primitive.ObjectID, action string, _ map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func TestCreateFeedbackHandler(t *testing.T) {
	store := newMemFeedback()
	activity := &activityCalls{}
	h := NewFeedbackHandler(services.NewFeedbackService(store, activity))

	t.Run("anonymous records origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"message":"<b>Great</b> app","rating":5}`))
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.Header.Set("User-Agent", "tests/1.0")
		rr := httptest.NewRecorder()
		h.CreateFeedbackHandler(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var fb models.Feedback
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fb))
		assert.Equal(t, "Great app", fb.Message)
		assert.Equal(t, "general", fb.Type)
		assert.Equal(t, "203.0.113.9", fb.IP)
		assert.Equal(t, "tests/1.0", fb.UserAgent)
		assert.Nil(t, fb.UserID)
		assert.Empty(t, activity.actions)
	})

	t.Run("bearer identifies the user", func(t *testing.T) {
		userID := primitive.NewObjectID()
		req := withClaims(httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"message":"bug here","type":"bug"}`)), userID, "user")
		rr := httptest.NewRecorder()
		h.CreateFeedbackHandler(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var fb models.Feedback
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fb))
		require.NotNil(t, fb.UserID)
		assert.Equal(t, userID, *fb.UserID)
		assert.Equal(t, []string{models.ActionCreateFeedback}, activity.actions)
	})

	t.Run("invalid rating", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.CreateFeedbackHandler(rr, httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"message":"hi","rating":9}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["fields"], "rating")
	})
}

func TestFeedbackAdminRoutes(t *testing.T) {
	store := newMemFeedback()
	h := NewFeedbackHandler(services.NewFeedbackService(store, &activityCalls{}))
	fb := &models.Feedback{Message: "hello", Status: models.FeedbackOpen}
	require.NoError(t, store.Create(context.Background(), fb))

	router := mux.NewRouter()
	router.HandleFunc("/api/feedback/{id}", h.UpdateFeedbackHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/feedback/{id}", h.DeleteFeedbackHandler).Methods(http.MethodDelete)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/feedback/"+fb.ID.Hex(), strings.NewReader(`{"adminResponse":"thanks"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.FeedbackResponded, decodeBody(t, rr)["status"])

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/feedback/"+fb.ID.Hex(), nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/feedback/"+fb.ID.Hex(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type noMembers struct{}

func (noMembers) IsGroupMember(context.Context, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return false, nil
}

func TestWebSocketHandler(t *testing.T) {
	hub := realtime.NewHub(noMembers{})
	defer hub.Close()
	h := NewRealtimeHandler(hub, secret, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.WebSocketHandler))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token joins user room", func(t *testing.T) {
		userID := primitive.NewObjectID()
		tok, err := jwtutil.GenerateToken(userID.Hex(), "u@example.com", "user", secret, time.Hour)
		require.NoError(t, err)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+tok, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool {
			return hub.RoomSize(realtime.UserRoom(userID)) == 1
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, hub.ToUser(userID, "new-notification", map[string]string{"title": "hi"}))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev realtime.Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, "new-notification", ev.Event)
	})
}

func TestOriginCheck(t *testing.T) {
	h := NewRealtimeHandler(nil, secret, []string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, h.upgrader.CheckOrigin(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, h.upgrader.CheckOrigin(req))
}
