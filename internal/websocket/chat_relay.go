package websocket

import (
	"context"
	"encoding/json"
	"time"

	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
	"ai-meeting/pkg/logger"

	"github.com/gorilla/websocket"
)

// ChatRelay owns the per-connection loop for the direct-message websocket:
// attach to the registry, persist each inbound message, fan the stored record
// out to both parties, detach on disconnect.
type ChatRelay struct {
	registry *DirectRegistry
	db       database.Database
}

func NewChatRelay(registry *DirectRegistry, db database.Database) *ChatRelay {
	return &ChatRelay{
		registry: registry,
		db:       db,
	}
}

// Serve runs until the connection closes. It must be the only reader of the
// underlying connection.
func (r *ChatRelay) Serve(c *Client) {
	defer func() {
		r.registry.Unregister(c.userID, c)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	r.registry.Register(c.userID, c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Chat websocket error for user %d: %v", c.userID, err)
			}
			return
		}

		var req models.ChatSend
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Error("Malformed chat frame from user %d: %v", c.userID, err)
			continue
		}

		// Persist first so the delivered payload carries the durable id and
		// timestamp.
		stored, err := r.db.SaveDirectMessage(context.Background(), c.userID, req.ReceiverID, req.Message)
		if err != nil {
			logger.Error("Failed to persist message from user %d: %v", c.userID, err)
			continue
		}

		payload, err := json.Marshal(models.ChatEvent{Type: models.EventChatMessage, ChatMessage: *stored})
		if err != nil {
			logger.Error("Failed to marshal chat event: %v", err)
			continue
		}

		// The record goes to every connection of both parties, so the
		// sender's other devices see the message too.
		r.registry.Deliver(req.ReceiverID, payload)
		if req.ReceiverID != c.userID {
			r.registry.Deliver(c.userID, payload)
		}
	}
}
