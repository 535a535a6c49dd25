package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrWrongPassword   = errors.New("wrong meeting password")
	ErrAlreadyJoined   = errors.New("already in this meeting")
	ErrNotInMeeting    = errors.New("not in this meeting")
)

const (
	meetingCodeLength  = 6
	meetingCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeGenAttempts = 100
)

type MeetingService struct {
	db database.Database
}

func NewMeetingService(db database.Database) *MeetingService {
	return &MeetingService{db: db}
}

// HashMeetingPassword hashes a meeting password. Meeting passwords are short
// shared secrets, hashed with sha256 so equality checks stay cheap; user
// account passwords use bcrypt instead.
func HashMeetingPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (s *MeetingService) CreateMeeting(ctx context.Context, hostID int, req *models.CreateMeetingRequest) (*models.Meeting, error) {
	if req.MeetingName == "" || req.Password == "" {
		return nil, fmt.Errorf("meeting name and password are required")
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	return s.db.CreateMeeting(ctx, hostID, req.MeetingName, HashMeetingPassword(req.Password), code)
}

func (s *MeetingService) JoinMeeting(ctx context.Context, userID int, req *models.JoinMeetingRequest) (*models.Meeting, error) {
	meeting, err := s.db.GetMeetingByCode(ctx, req.MeetingCode)
	if err != nil {
		return nil, ErrMeetingNotFound
	}

	if meeting.PasswordHash != HashMeetingPassword(req.Password) {
		return nil, ErrWrongPassword
	}

	active, err := s.db.HasActiveParticipant(ctx, meeting.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if active {
		return nil, ErrAlreadyJoined
	}

	// A fresh join entry is recorded even for returning participants; the
	// participant table is join/leave history, not a membership set.
	if _, err := s.db.AddParticipant(ctx, meeting.ID, userID); err != nil {
		return nil, err
	}

	return meeting, nil
}

func (s *MeetingService) LeaveMeeting(ctx context.Context, userID int, code string) (time.Time, error) {
	meeting, err := s.db.GetMeetingByCode(ctx, code)
	if err != nil {
		return time.Time{}, ErrMeetingNotFound
	}

	leftAt, err := s.db.MarkParticipantLeft(ctx, meeting.ID, userID)
	if err != nil {
		return time.Time{}, ErrNotInMeeting
	}

	return leftAt, nil
}

func (s *MeetingService) GetMeetingByCode(ctx context.Context, code string) (*models.Meeting, error) {
	meeting, err := s.db.GetMeetingByCode(ctx, code)
	if err != nil {
		return nil, ErrMeetingNotFound
	}
	return meeting, nil
}

// generateUniqueCode draws short codes until one is free. Codes are unique
// among all stored meetings, which covers the "unique among open rooms"
// requirement with room to spare.
func (s *MeetingService) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeGenAttempts; attempt++ {
		code, err := randomCode(meetingCodeLength)
		if err != nil {
			return "", err
		}

		exists, err := s.db.MeetingCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check meeting code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique meeting code")
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = meetingCodeCharset[int(b)%len(meetingCodeCharset)]
	}
	return string(buf), nil
}
