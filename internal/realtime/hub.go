// Package realtime pushes server events to connected websocket clients.
//
// Clients are grouped in rooms: every connection joins its own user room,
// admins also join the admin room, and clients opt into group rooms after
// a membership check. Delivery is at-most-once: a client whose send buffer
// is full misses the event.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dias221467/Saviya_Learn/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const AdminRoom = "admins"

func UserRoom(userID primitive.ObjectID) string  { return "user-" + userID.Hex() }
func GroupRoom(groupID primitive.ObjectID) string { return "group-" + groupID.Hex() }

// Event is the frame written to clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// MembershipChecker decides whether a user may subscribe to a group room.
type MembershipChecker interface {
	IsGroupMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)
}

// MembershipFunc adapts a function to MembershipChecker.
type MembershipFunc func(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error)

func (f MembershipFunc) IsGroupMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	return f(ctx, groupID, userID)
}

type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	members MembershipChecker
}

func NewHub(members MembershipChecker) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		members: members,
	}
}

// Register adds c to its user room and, for admins, to the admin room.
func (h *Hub) Register(c *Client, isAdmin bool) {
	h.mu.Lock()
	h.joinLocked(c, UserRoom(c.userID))
	if isAdmin {
		h.joinLocked(c, AdminRoom)
	}
	h.mu.Unlock()

	metrics.RealtimeConnections.Inc()
	logrus.WithField("userID", c.userID.Hex()).Debug("Realtime client connected")
}

// Unregister removes c from every room and closes its send buffer.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	c.closed = true
	close(c.send)
	h.mu.Unlock()

	metrics.RealtimeConnections.Dec()
	logrus.WithField("userID", c.userID.Hex()).Debug("Realtime client disconnected")
}

func (h *Hub) joinLocked(c *Client, room string) {
	clients, ok := h.rooms[room]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[room] = clients
	}
	clients[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if clients, ok := h.rooms[room]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !c.closed {
		h.joinLocked(c, room)
	}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func encode(event string, data interface{}) ([]byte, error) {
	frame, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return frame, nil
}

// deliverLocked queues frame on c without blocking. The caller holds h.mu.
func deliverLocked(c *Client, frame []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.RealtimeEventsDropped.Inc()
		return false
	}
}

// emit sends event to every client in room except skip and returns how many
// clients accepted it.
func (h *Hub) emit(room string, skip *Client, event string, data interface{}) (int, error) {
	frame, err := encode(event, data)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.rooms[room] {
		if c == skip {
			continue
		}
		if deliverLocked(c, frame) {
			delivered++
		}
	}
	return delivered, nil
}

func (h *Hub) reply(c *Client, event string, data interface{}) {
	frame, err := encode(event, data)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode realtime reply")
		return
	}
	h.mu.RLock()
	deliverLocked(c, frame)
	h.mu.RUnlock()
}

func (h *Hub) ToUser(userID primitive.ObjectID, event string, data interface{}) error {
	_, err := h.emit(UserRoom(userID), nil, event, data)
	return err
}

func (h *Hub) ToGroup(groupID primitive.ObjectID, event string, data interface{}) error {
	_, err := h.emit(GroupRoom(groupID), nil, event, data)
	return err
}

func (h *Hub) ToAdmins(event string, data interface{}) error {
	_, err := h.emit(AdminRoom, nil, event, data)
	return err
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	seen := make(map[*Client]struct{})
	for _, clients := range h.rooms {
		for c := range clients {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				all = append(all, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}
