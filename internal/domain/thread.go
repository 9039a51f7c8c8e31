package domain

import (
	"time"
)

// ThreadKind is the closed set of conversation kinds.
type ThreadKind string

const (
	ThreadDM        ThreadKind = "dm"
	ThreadGroup     ThreadKind = "group"
	ThreadBroadcast ThreadKind = "broadcast"
)

// Valid reports whether k is one of the known kinds.
func (k ThreadKind) Valid() bool {
	switch k {
	case ThreadDM, ThreadGroup, ThreadBroadcast:
		return true
	}
	return false
}

type Thread struct {
	ID        int64      `json:"thread_id"`
	Kind      ThreadKind `json:"kind"`
	Name      *string    `json:"name,omitempty"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Membership struct {
	ThreadID   int64      `json:"thread_id"`
	UserID     int64      `json:"user_id"`
	Role       string     `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	// Joined field for rendering
	UserLabel string `json:"user_label,omitempty"`
}

// ThreadSummary is the list-view projection of a thread for one viewer.
type ThreadSummary struct {
	Thread
	DisplayName  string   `json:"display_name"`
	MemberCount  int      `json:"member_count"`
	MessageCount int      `json:"message_count"`
	UnreadCount  int      `json:"unread_count"`
	LastMessage  *Message `json:"last_message,omitempty"`
}
