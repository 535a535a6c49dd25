package services

import (
	"context"
	"errors"
	"testing"

	"ai-meeting/internal/database"
	"ai-meeting/internal/models"
)

// contactStore fakes the user and friendship queries the service issues.
type contactStore struct {
	database.Database

	usersByEmail map[string]*models.User
	usersByID    map[int]*models.User
	friendships  map[[2]int]bool
	contacts     []*models.Contact
	readMarks    [][2]int
}

func newContactStore() *contactStore {
	return &contactStore{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[int]*models.User),
		friendships:  make(map[[2]int]bool),
	}
}

func (s *contactStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("no rows")
}

func (s *contactStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	if u, ok := s.usersByID[id]; ok {
		return u, nil
	}
	return nil, errors.New("no rows")
}

func (s *contactStore) AddFriend(ctx context.Context, userID, friendID int) error {
	s.friendships[[2]int{userID, friendID}] = true
	return nil
}

func (s *contactStore) FriendshipExists(ctx context.Context, userID, friendID int) (bool, error) {
	return s.friendships[[2]int{userID, friendID}], nil
}

func (s *contactStore) ListContacts(ctx context.Context, userID int) ([]*models.Contact, error) {
	return s.contacts, nil
}

func (s *contactStore) MarkConversationRead(ctx context.Context, userID, friendID int) error {
	if !s.friendships[[2]int{userID, friendID}] {
		return errors.New("no rows")
	}
	s.readMarks = append(s.readMarks, [2]int{userID, friendID})
	return nil
}

func TestAddContactFlows(t *testing.T) {
	store := newContactStore()
	store.usersByID[2] = &models.User{ID: 2, Email: "bob@example.com"}
	svc := NewContactService(store)

	if err := svc.AddContact(context.Background(), 1, 1); !errors.Is(err, ErrSelfContact) {
		t.Errorf("self add: expected ErrSelfContact, got %v", err)
	}
	if err := svc.AddContact(context.Background(), 1, 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown friend: expected ErrUserNotFound, got %v", err)
	}

	if err := svc.AddContact(context.Background(), 1, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !store.friendships[[2]int{1, 2}] {
		t.Error("friendship was not recorded")
	}

	if err := svc.AddContact(context.Background(), 1, 2); !errors.Is(err, ErrContactExists) {
		t.Errorf("double add: expected ErrContactExists, got %v", err)
	}
}

func TestSearchByEmail(t *testing.T) {
	store := newContactStore()
	store.usersByEmail["bob@example.com"] = &models.User{ID: 2, Email: "bob@example.com"}
	svc := NewContactService(store)

	user, err := svc.SearchByEmail(context.Background(), "bob@example.com")
	if err != nil || user.ID != 2 {
		t.Fatalf("search returned %+v, %v", user, err)
	}
	if _, err := svc.SearchByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestContactsNeverReturnsNilSlice(t *testing.T) {
	svc := NewContactService(newContactStore())

	contacts, err := svc.Contacts(context.Background(), 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if contacts == nil {
		t.Fatal("an empty contact list must serialize as [], not null")
	}
}

func TestMarkRead(t *testing.T) {
	store := newContactStore()
	store.friendships[[2]int{1, 2}] = true
	svc := NewContactService(store)

	if err := svc.MarkRead(context.Background(), 1, 2); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if len(store.readMarks) != 1 {
		t.Errorf("expected one read mark, got %d", len(store.readMarks))
	}

	if err := svc.MarkRead(context.Background(), 1, 99); !errors.Is(err, ErrFriendshipNotFound) {
		t.Errorf("expected ErrFriendshipNotFound, got %v", err)
	}
}
