package models

import "time"

type ChatMessage struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatSend is the inbound frame on the chat websocket. The sender identity is
// taken from the authenticated connection, never from the payload.
type ChatSend struct {
	ReceiverID int    `json:"receiver_id"`
	Message    string `json:"message"`
}
