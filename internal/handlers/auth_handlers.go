package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ai-meeting/internal/auth"
	"ai-meeting/internal/models"
	"ai-meeting/pkg/logger"
)

type AuthHandlers struct {
	authService *auth.Service
	frontendURL string
}

func NewAuthHandlers(authService *auth.Service, frontendURL string) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		frontendURL: frontendURL,
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		logger.Error("Registration error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		logger.Error("Login error: %v", err)
		if errors.Is(err, auth.ErrEmailNotVerified) {
			http.Error(w, "email address is not verified", http.StatusBadRequest)
			return
		}
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// VerifyEmail handles the link from the verification email and forwards the
// browser to the frontend's confirmation page.
func (h *AuthHandlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		logger.Error("Email verification error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, h.frontendURL+"/email-verified", http.StatusSeeOther)
}
