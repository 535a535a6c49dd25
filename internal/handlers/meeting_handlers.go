package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ai-meeting/internal/audio"
	"ai-meeting/internal/auth"
	"ai-meeting/internal/models"
	"ai-meeting/internal/services"
	ws "ai-meeting/internal/websocket"
	"ai-meeting/pkg/logger"

	"github.com/gorilla/websocket"
)

type MeetingHandlers struct {
	authService    *auth.Service
	meetingService *services.MeetingService
	relay          *ws.MeetingRelay
	pipeline       *audio.Pipeline
	upgrader       websocket.Upgrader
}

func NewMeetingHandlers(authService *auth.Service, meetingService *services.MeetingService, relay *ws.MeetingRelay, pipeline *audio.Pipeline) *MeetingHandlers {
	return &MeetingHandlers{
		authService:    authService,
		meetingService: meetingService,
		relay:          relay,
		pipeline:       pipeline,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

func (h *MeetingHandlers) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	meeting, err := h.meetingService.CreateMeeting(r.Context(), user.ID, &req)
	if err != nil {
		logger.Error("Create meeting error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, meeting)
}

func (h *MeetingHandlers) JoinMeeting(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.JoinMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	meeting, err := h.meetingService.JoinMeeting(r.Context(), user.ID, &req)
	if err != nil {
		logger.Error("Join meeting error: %v", err)
		switch {
		case errors.Is(err, services.ErrMeetingNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrWrongPassword):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, http.StatusOK, meeting)
}

func (h *MeetingHandlers) LeaveMeeting(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	code := r.URL.Query().Get("meeting_code")
	if code == "" {
		http.Error(w, "missing meeting_code", http.StatusBadRequest)
		return
	}

	leftAt, err := h.meetingService.LeaveMeeting(r.Context(), user.ID, code)
	if err != nil {
		logger.Error("Leave meeting error: %v", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"left_meeting": leftAt})
}

// HandleMeetingWS upgrades to the signaling websocket for one meeting room.
// Path: /meeting/ws/{code}.
func (h *MeetingHandlers) HandleMeetingWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	code := pathSegment(r, 3)
	if code == "" {
		http.Error(w, "missing meeting code", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Meeting websocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(conn, user.ID)
	go client.WritePump()
	go h.relay.Serve(client, code)
}

// HandleAudioWS receives one member's continuous audio recording. Chunks are
// buffered silently; the transcription pipeline fires only when the stream
// ends. Path: /meeting/ws/audio/{code}.
func (h *MeetingHandlers) HandleAudioWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	code := pathSegment(r, 4)
	if code == "" {
		http.Error(w, "missing meeting code", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Audio websocket upgrade error: %v", err)
		return
	}

	logger.Info("Audio stream opened for meeting %s, user %d", code, user.ID)
	defer func() {
		conn.Close()
		h.pipeline.Finalize(code, user.ID)
		logger.Info("Audio stream closed for meeting %s, user %d", code, user.ID)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("Audio websocket error for user %d: %v", user.ID, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := h.pipeline.IngestChunk(code, user.ID, data); err != nil {
			logger.Error("Failed to ingest audio chunk for meeting %s: %v", code, err)
		}
	}
}

// GetSummary handles GET /meeting/{code}/summary. It only reports pipeline
// state; a failed pipeline run looks the same as one still in progress.
func (h *MeetingHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	code := pathSegment(r, 2)
	if code == "" {
		http.Error(w, "missing meeting code", http.StatusBadRequest)
		return
	}

	if summary, ok := h.pipeline.Summary(code); ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "summary": summary})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "processing"})
}

func (h *MeetingHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	token := requestToken(r)
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	return h.authService.GetUserFromToken(r.Context(), token)
}

func pathSegment(r *http.Request, index int) string {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) <= index {
		return ""
	}
	return parts[index]
}
