package database

import (
	"context"
	"time"

	"ai-meeting/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, req *models.RegisterRequest, passwordHash, verificationToken string, tokenExpires time.Time) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkUserVerified(ctx context.Context, userID int) error
}

type FriendRepository interface {
	AddFriend(ctx context.Context, userID, friendID int) error
	FriendshipExists(ctx context.Context, userID, friendID int) (bool, error)
	ListContacts(ctx context.Context, userID int) ([]*models.Contact, error)
	MarkConversationRead(ctx context.Context, userID, friendID int) error
}

type ChatMessageRepository interface {
	SaveDirectMessage(ctx context.Context, senderID, receiverID int, text string) (*models.ChatMessage, error)
	GetConversation(ctx context.Context, userID, friendID int) ([]*models.ChatMessage, error)
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, hostID int, name, passwordHash, code string) (*models.Meeting, error)
	GetMeetingByCode(ctx context.Context, code string) (*models.Meeting, error)
	MeetingCodeExists(ctx context.Context, code string) (bool, error)
	AddParticipant(ctx context.Context, meetingID, userID int) (*models.Participant, error)
	HasActiveParticipant(ctx context.Context, meetingID, userID int) (bool, error)
	MarkParticipantLeft(ctx context.Context, meetingID, userID int) (time.Time, error)
}

type Database interface {
	UserRepository
	FriendRepository
	ChatMessageRepository
	MeetingRepository
	Close() error
}
