package models

type EventType string

const (
	EventExistingUsers EventType = "existing_users"
	EventUserJoined    EventType = "user_joined"
	EventUserLeft      EventType = "user_left"
	EventChatMessage   EventType = "chat_message"
)

// MeetingEvent is a membership notification on the meeting websocket.
// Signaling payloads are relayed as-is and do not use this shape.
type MeetingEvent struct {
	Type   EventType `json:"type"`
	UserID int       `json:"user_id"`
}

// RosterEvent is the first frame a joining member receives: everyone already
// live in the room. The list is present even when empty.
type RosterEvent struct {
	Type    EventType `json:"type"`
	UserIDs []int     `json:"user_ids"`
}

// ChatEvent is the delivered form of a direct message: the stored record,
// tagged with its event type.
type ChatEvent struct {
	Type EventType `json:"type"`
	ChatMessage
}
