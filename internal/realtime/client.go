package realtime

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
	checkTimeout   = 5 * time.Second
)

// Client events.
const (
	EventJoinGroup   = "join-group"
	EventLeaveGroup  = "leave-group"
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"
)

// Server replies to client events.
const (
	EventJoinedGroup    = "joined-group"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
	EventError          = "error"
)

type inbound struct {
	Event string `json:"event"`
	Data  struct {
		GroupID string `json:"groupId"`
	} `json:"data"`
}

// Client is one websocket connection. rooms and closed are guarded by the
// hub's mutex.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID primitive.ObjectID
	send   chan []byte
	rooms  map[string]struct{}
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID primitive.ObjectID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) UserID() primitive.ObjectID { return c.userID }

// Start runs the write pump in the background and the read pump on the
// calling goroutine until the connection drops.
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("Unexpected websocket close")
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.reply(c, EventError, map[string]string{"message": "Malformed event."})
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(msg inbound) {
	switch msg.Event {
	case EventJoinGroup, EventLeaveGroup, EventTypingStart, EventTypingStop:
	default:
		c.hub.reply(c, EventError, map[string]string{"message": "Unknown event."})
		return
	}

	groupID, err := primitive.ObjectIDFromHex(msg.Data.GroupID)
	if err != nil {
		c.hub.reply(c, EventError, map[string]string{"message": "Invalid group id."})
		return
	}
	room := GroupRoom(groupID)
	payload := map[string]string{"groupId": groupID.Hex(), "userId": c.userID.Hex()}

	switch msg.Event {
	case EventJoinGroup:
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		ok, err := c.hub.members.IsGroupMember(ctx, groupID, c.userID)
		cancel()
		if err != nil {
			logrus.WithError(err).WithField("groupID", groupID.Hex()).Warn("Membership check failed")
		}
		if !ok {
			c.hub.reply(c, EventError, map[string]string{"message": "Not a member of this group."})
			return
		}
		c.hub.join(c, room)
		c.hub.reply(c, EventJoinedGroup, map[string]string{"groupId": groupID.Hex()})
	case EventLeaveGroup:
		c.hub.leave(c, room)
	case EventTypingStart, EventTypingStop:
		if !c.inRoom(room) {
			return
		}
		out := EventUserTyping
		if msg.Event == EventTypingStop {
			out = EventUserStopTyping
		}
		if _, err := c.hub.emit(room, c, out, payload); err != nil {
			logrus.WithError(err).Warn("Failed to forward typing event")
		}
	}
}

func (c *Client) inRoom(room string) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}
