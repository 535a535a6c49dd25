package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
)

// chatStore fakes just the message persistence the relay touches.
type chatStore struct {
	database.Database

	mu    sync.Mutex
	saved []models.ChatMessage
	fail  bool
}

func (s *chatStore) SaveDirectMessage(ctx context.Context, senderID, receiverID int, text string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("database unavailable")
	}
	msg := models.ChatMessage{
		ID:         len(s.saved) + 1,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    text,
		Timestamp:  time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
	s.saved = append(s.saved, msg)
	return &msg, nil
}

func (s *chatStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func TestChatRelayPersistsThenDeliversToBothParties(t *testing.T) {
	store := &chatStore{}
	registry := NewDirectRegistry()
	relay := NewChatRelay(registry, store)

	receiverPhone := NewClient(newFakeConn(), 2)
	receiverLaptop := NewClient(newFakeConn(), 2)
	registry.Register(2, receiverPhone)
	registry.Register(2, receiverLaptop)

	fc := newFakeConn()
	sender := NewClient(fc, 1)
	go relay.Serve(sender)

	eventually(t, func() bool { return registry.IsOnline(1) }, "sender never attached")

	fc.push([]byte(`{"receiver_id":2,"message":"hello"}`))

	for _, c := range []*Client{receiverPhone, receiverLaptop, sender} {
		var event models.ChatEvent
		decode(t, recv(t, c), &event)
		if event.Type != models.EventChatMessage {
			t.Errorf("expected chat_message event, got %q", event.Type)
		}
		if event.ID != 1 || event.SenderID != 1 || event.ReceiverID != 2 || event.Message != "hello" {
			t.Errorf("delivered record does not match stored one: %+v", event.ChatMessage)
		}
	}

	if store.count() != 1 {
		t.Fatalf("expected 1 persisted message, got %d", store.count())
	}

	fc.Close()
	eventually(t, func() bool { return !registry.IsOnline(1) }, "sender was not detached on disconnect")
}

func TestChatRelayOfflineReceiverStillPersists(t *testing.T) {
	store := &chatStore{}
	registry := NewDirectRegistry()
	relay := NewChatRelay(registry, store)

	fc := newFakeConn()
	sender := NewClient(fc, 1)
	go relay.Serve(sender)

	fc.push([]byte(`{"receiver_id":99,"message":"into the void"}`))

	// The sender's own echo proves the message was stored before routing.
	var event models.ChatEvent
	decode(t, recv(t, sender), &event)
	if event.ReceiverID != 99 || event.Message != "into the void" {
		t.Errorf("unexpected echo: %+v", event.ChatMessage)
	}
	if store.count() != 1 {
		t.Fatalf("expected the message persisted, got %d records", store.count())
	}

	fc.Close()
}

func TestChatRelaySkipsBadFramesAndKeepsServing(t *testing.T) {
	store := &chatStore{}
	registry := NewDirectRegistry()
	relay := NewChatRelay(registry, store)

	fc := newFakeConn()
	sender := NewClient(fc, 1)
	go relay.Serve(sender)

	fc.push([]byte(`not json`))
	fc.push([]byte(`{"receiver_id":1,"message":"still alive"}`))

	var event models.ChatEvent
	decode(t, recv(t, sender), &event)
	if event.Message != "still alive" {
		t.Fatalf("relay should survive a malformed frame, got %+v", event.ChatMessage)
	}
	// Self-addressed messages are delivered once, not twice.
	expectNone(t, sender)
	if store.count() != 1 {
		t.Fatalf("malformed frame must not be persisted, got %d records", store.count())
	}

	fc.Close()
}

func TestChatRelayDropsMessageWhenPersistFails(t *testing.T) {
	store := &chatStore{fail: true}
	registry := NewDirectRegistry()
	relay := NewChatRelay(registry, store)

	fc := newFakeConn()
	sender := NewClient(fc, 1)
	go relay.Serve(sender)

	eventually(t, func() bool { return registry.IsOnline(1) }, "sender never attached")
	fc.push([]byte(`{"receiver_id":2,"message":"lost"}`))

	// Nothing may be delivered for a message that was never stored.
	time.Sleep(50 * time.Millisecond)
	expectNone(t, sender)

	fc.Close()
}
