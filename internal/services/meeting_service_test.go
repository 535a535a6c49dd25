package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
)

// meetingStore fakes the meeting queries the service issues.
type meetingStore struct {
	database.Database

	meetings      map[string]*models.Meeting
	active        map[int]bool
	taken         map[string]bool
	participants  []models.Participant
	nextMeetingID int
}

func newMeetingStore() *meetingStore {
	return &meetingStore{
		meetings:      make(map[string]*models.Meeting),
		active:        make(map[int]bool),
		taken:         make(map[string]bool),
		nextMeetingID: 1,
	}
}

func (s *meetingStore) CreateMeeting(ctx context.Context, hostID int, name, passwordHash, code string) (*models.Meeting, error) {
	m := &models.Meeting{
		ID:           s.nextMeetingID,
		MeetingCode:  code,
		MeetingName:  name,
		HostID:       hostID,
		PasswordHash: passwordHash,
	}
	s.nextMeetingID++
	s.meetings[code] = m
	s.taken[code] = true
	return m, nil
}

func (s *meetingStore) GetMeetingByCode(ctx context.Context, code string) (*models.Meeting, error) {
	if m, ok := s.meetings[code]; ok {
		return m, nil
	}
	return nil, errors.New("no rows")
}

func (s *meetingStore) MeetingCodeExists(ctx context.Context, code string) (bool, error) {
	return s.taken[code], nil
}

func (s *meetingStore) AddParticipant(ctx context.Context, meetingID, userID int) (*models.Participant, error) {
	p := models.Participant{MeetingID: meetingID, UserID: userID, JoinedAt: time.Now()}
	s.participants = append(s.participants, p)
	return &p, nil
}

func (s *meetingStore) HasActiveParticipant(ctx context.Context, meetingID, userID int) (bool, error) {
	return s.active[userID], nil
}

func (s *meetingStore) MarkParticipantLeft(ctx context.Context, meetingID, userID int) (time.Time, error) {
	if !s.active[userID] {
		return time.Time{}, errors.New("no rows")
	}
	s.active[userID] = false
	return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), nil
}

func TestRandomCodeShapeAndCharset(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomCode(meetingCodeLength)
		if err != nil {
			t.Fatalf("failed to draw code: %v", err)
		}
		if len(code) != meetingCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), meetingCodeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(meetingCodeCharset, c) {
				t.Fatalf("code %q contains %q, outside the charset", code, c)
			}
		}
	}
}

func TestHashMeetingPasswordIsDeterministic(t *testing.T) {
	a := HashMeetingPassword("open sesame")
	b := HashMeetingPassword("open sesame")
	if a != b {
		t.Error("the same password must hash to the same value")
	}
	if a == HashMeetingPassword("something else") {
		t.Error("different passwords must not collide here")
	}
	if len(a) != 64 {
		t.Errorf("hash should be 64 hex chars, got %d", len(a))
	}
}

func TestCreateMeetingRetriesTakenCodes(t *testing.T) {
	store := newMeetingStore()
	svc := NewMeetingService(store)

	// First creation takes some code; a second must keep drawing until it
	// finds a free one even though the fake reports collisions.
	first, err := svc.CreateMeeting(context.Background(), 1, &models.CreateMeetingRequest{
		MeetingName: "standup",
		Password:    "secret",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(first.MeetingCode) != meetingCodeLength {
		t.Fatalf("unexpected code %q", first.MeetingCode)
	}
	if first.PasswordHash != HashMeetingPassword("secret") {
		t.Error("stored hash must match the meeting password hash")
	}

	second, err := svc.CreateMeeting(context.Background(), 1, &models.CreateMeetingRequest{
		MeetingName: "retro",
		Password:    "secret",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if second.MeetingCode == first.MeetingCode {
		t.Error("codes must be unique among stored meetings")
	}
}

func TestCreateMeetingRequiresNameAndPassword(t *testing.T) {
	svc := NewMeetingService(newMeetingStore())

	if _, err := svc.CreateMeeting(context.Background(), 1, &models.CreateMeetingRequest{Password: "p"}); err == nil {
		t.Error("missing name should be rejected")
	}
	if _, err := svc.CreateMeeting(context.Background(), 1, &models.CreateMeetingRequest{MeetingName: "m"}); err == nil {
		t.Error("missing password should be rejected")
	}
}

func TestJoinMeetingFlows(t *testing.T) {
	store := newMeetingStore()
	svc := NewMeetingService(store)

	meeting, err := svc.CreateMeeting(context.Background(), 1, &models.CreateMeetingRequest{
		MeetingName: "standup",
		Password:    "secret",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := svc.JoinMeeting(context.Background(), 2, &models.JoinMeetingRequest{
		MeetingCode: meeting.MeetingCode,
		Password:    "secret",
	})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if got.ID != meeting.ID {
		t.Errorf("joined wrong meeting: %+v", got)
	}
	if len(store.participants) != 1 || store.participants[0].UserID != 2 {
		t.Errorf("expected a join record for user 2, got %+v", store.participants)
	}

	if _, err := svc.JoinMeeting(context.Background(), 2, &models.JoinMeetingRequest{
		MeetingCode: "NOPE42",
		Password:    "secret",
	}); !errors.Is(err, ErrMeetingNotFound) {
		t.Errorf("unknown code: expected ErrMeetingNotFound, got %v", err)
	}

	if _, err := svc.JoinMeeting(context.Background(), 2, &models.JoinMeetingRequest{
		MeetingCode: meeting.MeetingCode,
		Password:    "wrong",
	}); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password: expected ErrWrongPassword, got %v", err)
	}

	store.active[2] = true
	if _, err := svc.JoinMeeting(context.Background(), 2, &models.JoinMeetingRequest{
		MeetingCode: meeting.MeetingCode,
		Password:    "secret",
	}); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("double join: expected ErrAlreadyJoined, got %v", err)
	}
}

func TestLeaveMeetingFlows(t *testing.T) {
	store := newMeetingStore()
	svc := NewMeetingService(store)

	meeting, err := svc.CreateMeeting(context.Background(), 1, &models.CreateMeetingRequest{
		MeetingName: "standup",
		Password:    "secret",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	store.active[2] = true
	leftAt, err := svc.LeaveMeeting(context.Background(), 2, meeting.MeetingCode)
	if err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if leftAt.IsZero() {
		t.Error("leave should return the recorded timestamp")
	}

	if _, err := svc.LeaveMeeting(context.Background(), 2, meeting.MeetingCode); !errors.Is(err, ErrNotInMeeting) {
		t.Errorf("leaving twice: expected ErrNotInMeeting, got %v", err)
	}
	if _, err := svc.LeaveMeeting(context.Background(), 2, "NOPE42"); !errors.Is(err, ErrMeetingNotFound) {
		t.Errorf("unknown code: expected ErrMeetingNotFound, got %v", err)
	}
}
