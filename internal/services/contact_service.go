package services

import (
	"context"
	"errors"
	"fmt"

	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
)

var (
	ErrSelfContact        = errors.New("cannot add yourself as a contact")
	ErrContactExists      = errors.New("contact already added")
	ErrUserNotFound       = errors.New("user not found")
	ErrFriendshipNotFound = errors.New("friendship not found")
)

type ContactService struct {
	db database.Database
}

func NewContactService(db database.Database) *ContactService {
	return &ContactService{db: db}
}

func (s *ContactService) SearchByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *ContactService) AddContact(ctx context.Context, userID, friendID int) error {
	if userID == friendID {
		return ErrSelfContact
	}

	if _, err := s.db.GetUserByID(ctx, friendID); err != nil {
		return ErrUserNotFound
	}

	exists, err := s.db.FriendshipExists(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if exists {
		return ErrContactExists
	}

	return s.db.AddFriend(ctx, userID, friendID)
}

func (s *ContactService) Contacts(ctx context.Context, userID int) ([]*models.Contact, error) {
	contacts, err := s.db.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	return contacts, nil
}

// MarkRead bumps the friendship's read timestamp so messages from friendID up
// to now no longer count as unread.
func (s *ContactService) MarkRead(ctx context.Context, userID, friendID int) error {
	if err := s.db.MarkConversationRead(ctx, userID, friendID); err != nil {
		return ErrFriendshipNotFound
	}
	return nil
}
