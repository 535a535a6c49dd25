package database

import (
	"context"
	"fmt"
	"time"

	"ai-meeting/internal/models"
	"ai-meeting/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation
func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest, passwordHash, verificationToken string, tokenExpires time.Time) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, is_verified, verification_token, verification_token_expires, created_at)
		VALUES ($1, $2, $3, $4, false, $5, $6, NOW())
		RETURNING id, email, first_name, last_name, is_verified, created_at`

	user := &models.User{PasswordHash: passwordHash, VerificationToken: verificationToken}
	err := db.pool.QueryRow(ctx, query, req.Email, passwordHash, req.FirstName, req.LastName, verificationToken, tokenExpires).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsVerified, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, first_name, last_name, is_verified, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.IsVerified, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, email, first_name, last_name, is_verified, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsVerified, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT id, email, first_name, last_name, is_verified, verification_token_expires, created_at
		FROM users WHERE verification_token = $1`

	user := &models.User{VerificationToken: token}
	err := db.pool.QueryRow(ctx, query, token).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsVerified, &user.VerificationTokenExpires, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) MarkUserVerified(ctx context.Context, userID int) error {
	query := `
		UPDATE users
		SET is_verified = true, verification_token = NULL, verification_token_expires = NULL
		WHERE id = $1`

	_, err := db.pool.Exec(ctx, query, userID)
	return err
}

// Friend Repository Implementation
func (db *PostgresDB) AddFriend(ctx context.Context, userID, friendID int) error {
	query := `INSERT INTO friends (user_id, friend_id, timestamp) VALUES ($1, $2, NOW())`
	_, err := db.pool.Exec(ctx, query, userID, friendID)
	return err
}

func (db *PostgresDB) FriendshipExists(ctx context.Context, userID, friendID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friends WHERE user_id = $1 AND friend_id = $2)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, userID, friendID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) ListContacts(ctx context.Context, userID int) ([]*models.Contact, error) {
	// Unread counts messages from the friend newer than the friendship's
	// last-read timestamp.
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name,
		       (SELECT COUNT(*) FROM chat_messages m
		        WHERE m.sender_id = f.friend_id AND m.receiver_id = f.user_id AND m.timestamp > f.timestamp)
		FROM friends f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.first_name, u.last_name`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact := &models.Contact{}
		if err := rows.Scan(&contact.ID, &contact.Email, &contact.FirstName, &contact.LastName, &contact.UnreadCount); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

func (db *PostgresDB) MarkConversationRead(ctx context.Context, userID, friendID int) error {
	query := `UPDATE friends SET timestamp = NOW() WHERE user_id = $1 AND friend_id = $2`

	tag, err := db.pool.Exec(ctx, query, userID, friendID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Chat Message Repository Implementation
func (db *PostgresDB) SaveDirectMessage(ctx context.Context, senderID, receiverID int, text string) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (sender_id, receiver_id, message, timestamp)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, timestamp`

	msg := &models.ChatMessage{SenderID: senderID, ReceiverID: receiverID, Message: text}
	err := db.pool.QueryRow(ctx, query, senderID, receiverID, text).Scan(&msg.ID, &msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return msg, nil
}

func (db *PostgresDB) GetConversation(ctx context.Context, userID, friendID int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, sender_id, receiver_id, message, timestamp
		FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY timestamp`

	rows, err := db.pool.Query(ctx, query, userID, friendID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Message, &msg.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Meeting Repository Implementation
func (db *PostgresDB) CreateMeeting(ctx context.Context, hostID int, name, passwordHash, code string) (*models.Meeting, error) {
	query := `
		INSERT INTO meetings (meeting_code, meeting_name, host_id, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, meeting_code, meeting_name, host_id`

	meeting := &models.Meeting{PasswordHash: passwordHash}
	err := db.pool.QueryRow(ctx, query, code, name, hostID, passwordHash).Scan(
		&meeting.ID, &meeting.MeetingCode, &meeting.MeetingName, &meeting.HostID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	return meeting, nil
}

func (db *PostgresDB) GetMeetingByCode(ctx context.Context, code string) (*models.Meeting, error) {
	query := `SELECT id, meeting_code, meeting_name, host_id, password FROM meetings WHERE meeting_code = $1`

	meeting := &models.Meeting{}
	err := db.pool.QueryRow(ctx, query, code).Scan(
		&meeting.ID, &meeting.MeetingCode, &meeting.MeetingName, &meeting.HostID, &meeting.PasswordHash,
	)
	if err != nil {
		return nil, err
	}

	return meeting, nil
}

func (db *PostgresDB) MeetingCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM meetings WHERE meeting_code = $1)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, code).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) AddParticipant(ctx context.Context, meetingID, userID int) (*models.Participant, error) {
	query := `
		INSERT INTO meeting_participants (meeting_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		RETURNING id, joined_at`

	participant := &models.Participant{MeetingID: meetingID, UserID: userID}
	err := db.pool.QueryRow(ctx, query, meetingID, userID).Scan(&participant.ID, &participant.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	return participant, nil
}

func (db *PostgresDB) HasActiveParticipant(ctx context.Context, meetingID, userID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM meeting_participants
			WHERE meeting_id = $1 AND user_id = $2 AND left_at IS NULL)`

	var exists bool
	err := db.pool.QueryRow(ctx, query, meetingID, userID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) MarkParticipantLeft(ctx context.Context, meetingID, userID int) (time.Time, error) {
	// Join entries are kept as history; leaving only stamps left_at.
	query := `
		UPDATE meeting_participants SET left_at = NOW()
		WHERE meeting_id = $1 AND user_id = $2 AND left_at IS NULL
		RETURNING left_at`

	var leftAt time.Time
	err := db.pool.QueryRow(ctx, query, meetingID, userID).Scan(&leftAt)
	if err != nil {
		return time.Time{}, err
	}

	return leftAt, nil
}
