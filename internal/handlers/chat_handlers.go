package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ai-meeting/internal/auth"
	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
	"ai-meeting/internal/services"
	ws "ai-meeting/internal/websocket"
	"ai-meeting/pkg/logger"

	"github.com/gorilla/websocket"
)

type ChatHandlers struct {
	authService    *auth.Service
	contactService *services.ContactService
	relay          *ws.ChatRelay
	db             database.Database
	upgrader       websocket.Upgrader
}

func NewChatHandlers(authService *auth.Service, contactService *services.ContactService, relay *ws.ChatRelay, db database.Database) *ChatHandlers {
	return &ChatHandlers{
		authService:    authService,
		contactService: contactService,
		relay:          relay,
		db:             db,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// GetChat returns the full conversation between the current user and a friend.
func (h *ChatHandlers) GetChat(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	friendID, err := strconv.Atoi(r.URL.Query().Get("friend_id"))
	if err != nil {
		http.Error(w, "invalid friend_id", http.StatusBadRequest)
		return
	}

	messages, err := h.db.GetConversation(r.Context(), user.ID, friendID)
	if err != nil {
		logger.Error("Get chat error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, messages)
}

// MarkRead handles POST /chat/{contact}/read.
func (h *ChatHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 4 {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	contactID, err := strconv.Atoi(parts[2])
	if err != nil {
		http.Error(w, "invalid contact ID", http.StatusBadRequest)
		return
	}

	if err := h.contactService.MarkRead(r.Context(), user.ID, contactID); err != nil {
		http.Error(w, "friendship not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleChatWS upgrades to the direct-message websocket. Authentication runs
// before the upgrade; a bad token never touches the registry.
func (h *ChatHandlers) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Chat websocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(conn, user.ID)
	go client.WritePump()
	go h.relay.Serve(client)
}

func (h *ChatHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	token := requestToken(r)
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	return h.authService.GetUserFromToken(r.Context(), token)
}
