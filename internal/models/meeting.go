package models

import "time"

type Meeting struct {
	ID           int    `json:"id"`
	MeetingCode  string `json:"meeting_code"`
	MeetingName  string `json:"meeting_name"`
	HostID       int    `json:"host_id"`
	PasswordHash string `json:"-"`
}

type CreateMeetingRequest struct {
	MeetingName string `json:"meeting_name"`
	Password    string `json:"password"`
}

type JoinMeetingRequest struct {
	MeetingCode string `json:"meeting_code"`
	Password    string `json:"password"`
}

type Participant struct {
	ID        int        `json:"id"`
	MeetingID int        `json:"meeting_id"`
	UserID    int        `json:"user_id"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}
