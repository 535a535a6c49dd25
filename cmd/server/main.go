package main

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ai-meeting/internal/ai"
	"ai-meeting/internal/audio"
	"ai-meeting/internal/auth"
	"ai-meeting/internal/config"
	"ai-meeting/internal/database"
	"ai-meeting/internal/handlers"
	"ai-meeting/internal/mail"
	"ai-meeting/internal/services"
	ws "ai-meeting/internal/websocket"
	"ai-meeting/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize services
	mailer := mail.NewSMTPMailer(cfg.SMTP, cfg.App.BaseURL)
	authService := auth.NewService(db, cfg, mailer)
	contactService := services.NewContactService(db)
	meetingService := services.NewMeetingService(db)

	// Initialize the routing core: one registry per delivery scope, both
	// owned here and injected downward.
	directRegistry := ws.NewDirectRegistry()
	roomRegistry := ws.NewRoomRegistry()
	chatRelay := ws.NewChatRelay(directRegistry, db)
	meetingRelay := ws.NewMeetingRelay(roomRegistry)

	// Audio pipeline with the external transcription/summarization services
	transcriber := ai.NewSpeechClient(cfg.AI.SpeechAPIKey, cfg.AI.LanguageCode)
	summarizer := ai.NewGeminiClient(cfg.AI.GeminiAPIKey)
	pipeline := audio.NewPipeline(transcriber, summarizer, cfg.AI.AudioDir, cfg.AI.PipelineTimeout)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService, cfg.App.FrontendURL)
	userHandlers := handlers.NewUserHandlers(contactService, authService)
	chatHandlers := handlers.NewChatHandlers(authService, contactService, chatRelay, db)
	meetingHandlers := handlers.NewMeetingHandlers(authService, meetingService, meetingRelay, pipeline)

	// Setup routes
	mux := http.NewServeMux()
	setupRoutes(mux, authHandlers, userHandlers, chatHandlers, meetingHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 Chat websocket: ws://localhost%s/chat/ws", cfg.Server.Port)
	logger.Info("📡 Meeting websocket: ws://localhost%s/meeting/ws/{code}", cfg.Server.Port)
	printAPIEndpoints()

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	// Let in-flight transcriptions finish so recordings are not lost
	pipeline.Wait()
}

func setupRoutes(mux *http.ServeMux, authHandlers *handlers.AuthHandlers, userHandlers *handlers.UserHandlers, chatHandlers *handlers.ChatHandlers, meetingHandlers *handlers.MeetingHandlers) {
	// Auth routes
	mux.HandleFunc("/auth/register", authHandlers.Register)
	mux.HandleFunc("/auth/login", authHandlers.Login)
	mux.HandleFunc("/auth/verify-email", authHandlers.VerifyEmail)

	// User routes
	mux.HandleFunc("/user", userHandlers.SearchUser)
	mux.HandleFunc("/user/add_contact", userHandlers.AddContact)
	mux.HandleFunc("/user/get_contacts", userHandlers.GetContacts)

	// Chat routes
	mux.HandleFunc("/chat/get_chat", chatHandlers.GetChat)
	mux.HandleFunc("/chat/ws", chatHandlers.HandleChatWS)
	mux.HandleFunc("/chat/", func(w http.ResponseWriter, r *http.Request) {
		// /chat/{contact}/read
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) == 4 && parts[3] == "read" && r.Method == http.MethodPost {
			chatHandlers.MarkRead(w, r)
			return
		}
		http.Error(w, "endpoint not found", http.StatusNotFound)
	})

	// Meeting routes
	mux.HandleFunc("/meeting/create", meetingHandlers.CreateMeeting)
	mux.HandleFunc("/meeting/join", meetingHandlers.JoinMeeting)
	mux.HandleFunc("/meeting/leave", meetingHandlers.LeaveMeeting)
	mux.HandleFunc("/meeting/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")

		// /meeting/ws/audio/{code}
		if len(parts) == 5 && parts[2] == "ws" && parts[3] == "audio" {
			meetingHandlers.HandleAudioWS(w, r)
			return
		}

		// /meeting/ws/{code}
		if len(parts) == 4 && parts[2] == "ws" {
			meetingHandlers.HandleMeetingWS(w, r)
			return
		}

		// /meeting/{code}/summary
		if len(parts) == 4 && parts[3] == "summary" && r.Method == http.MethodGet {
			meetingHandlers.GetSummary(w, r)
			return
		}

		http.Error(w, "endpoint not found", http.StatusNotFound)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   POST /auth/register")
	logger.Info("   POST /auth/login")
	logger.Info("   GET  /auth/verify-email")
	logger.Info("   GET  /user?email=")
	logger.Info("   POST /user/add_contact")
	logger.Info("   GET  /user/get_contacts")
	logger.Info("   GET  /chat/get_chat?friend_id=")
	logger.Info("   POST /chat/{contact}/read")
	logger.Info("   POST /meeting/create")
	logger.Info("   POST /meeting/join")
	logger.Info("   POST /meeting/leave?meeting_code=")
	logger.Info("   GET  /meeting/{code}/summary")
}
