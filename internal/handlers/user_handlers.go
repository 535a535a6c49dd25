package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ai-meeting/internal/auth"
	"ai-meeting/internal/models"
	"ai-meeting/internal/services"
	"ai-meeting/pkg/logger"
)

type UserHandlers struct {
	contactService *services.ContactService
	authService    *auth.Service
}

func NewUserHandlers(contactService *services.ContactService, authService *auth.Service) *UserHandlers {
	return &UserHandlers{
		contactService: contactService,
		authService:    authService,
	}
}

// SearchUser looks a user up by email so they can be added as a contact.
func (h *UserHandlers) SearchUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	user, err := h.contactService.SearchByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) AddContact(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.AddContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.contactService.AddContact(r.Context(), user.ID, req.FriendID); err != nil {
		logger.Error("Add contact error: %v", err)
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{
		"user_id":   user.ID,
		"friend_id": req.FriendID,
	})
}

func (h *UserHandlers) GetContacts(w http.ResponseWriter, r *http.Request) {
	user, err := h.getUserFromToken(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	contacts, err := h.contactService.Contacts(r.Context(), user.ID)
	if err != nil {
		logger.Error("Get contacts error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

func (h *UserHandlers) getUserFromToken(r *http.Request) (*models.User, error) {
	token := requestToken(r)
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}
	return h.authService.GetUserFromToken(r.Context(), token)
}
