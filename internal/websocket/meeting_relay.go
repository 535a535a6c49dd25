package websocket

import (
	"encoding/json"
	"time"

	"ai-meeting/internal/models"
	"ai-meeting/pkg/logger"

	"github.com/gorilla/websocket"
)

// MeetingRelay owns the per-connection loop for the meeting signaling
// websocket. Signaling payloads are opaque JSON objects relayed between
// members; the relay only stamps the sender identity and picks the route.
type MeetingRelay struct {
	rooms *RoomRegistry
}

func NewMeetingRelay(rooms *RoomRegistry) *MeetingRelay {
	return &MeetingRelay{rooms: rooms}
}

// Serve attaches c to room and runs until the connection closes.
//
// Attach ordering matters: the new member is sent the current roster before it
// becomes visible to anyone, then the others are told it arrived. That way it
// never sees its own join event or a partial roster.
func (r *MeetingRelay) Serve(c *Client, room string) {
	roster := r.rooms.Members(room)
	if payload, err := json.Marshal(models.RosterEvent{Type: models.EventExistingUsers, UserIDs: roster}); err == nil {
		c.enqueue(payload)
	}

	if old := r.rooms.Join(room, c.userID, c); old != nil {
		// Reconnect: force the superseded connection closed instead of
		// leaving a dual-delivery window open.
		logger.Info("User %d rejoined room %s, closing superseded connection", c.userID, room)
		go old.Close()
	}

	if payload, err := json.Marshal(models.MeetingEvent{Type: models.EventUserJoined, UserID: c.userID}); err == nil {
		r.rooms.BroadcastExcept(room, c.userID, payload)
	}

	defer func() {
		// Leave reports false when this connection was superseded by a
		// rejoin; the user is still in the room then, so no user_left.
		if r.rooms.Leave(room, c.userID, c) {
			if payload, err := json.Marshal(models.MeetingEvent{Type: models.EventUserLeft, UserID: c.userID}); err == nil {
				r.rooms.BroadcastExcept(room, c.userID, payload)
			}
		}
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Meeting websocket error for user %d in room %s: %v", c.userID, room, err)
			}
			return
		}

		var frame map[string]interface{}
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Error("Malformed signaling frame from user %d in room %s: %v", c.userID, room, err)
			continue
		}

		// Sender identity comes from the authenticated connection, never
		// from the client payload.
		frame["sender_id"] = c.userID

		payload, err := json.Marshal(frame)
		if err != nil {
			continue
		}

		if recipient, ok := frame["recipient_id"].(float64); ok && recipient != 0 {
			r.rooms.SendToMember(room, int(recipient), payload)
		} else {
			r.rooms.BroadcastExcept(room, c.userID, payload)
		}
	}
}
