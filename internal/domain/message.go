package domain

import (
	"time"
)

type Message struct {
	ID        int64      `json:"message_id"`
	ThreadID  int64      `json:"thread_id"`
	SenderID  int64      `json:"sender_id"`
	Body      string     `json:"body"`
	ReplyTo   *int64     `json:"reply_to_message_id,omitempty"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	// Joined fields for rendering
	SenderLabel string         `json:"sender_label,omitempty"`
	Reactions   map[string]int `json:"reactions,omitempty"`
	MyReaction  string         `json:"my_reaction,omitempty"`
}

type Reaction struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// ReactionSummary holds per-emoji counts for one message plus the
// viewer's own current selection ("" when none).
type ReactionSummary struct {
	Counts     map[string]int `json:"counts"`
	MyReaction string         `json:"my_reaction,omitempty"`
}

// MessageFilter selects messages in a thread for one viewer. When
// VisibleSenders is non-empty only messages from those senders match;
// this is how the broadcast privacy rule reaches the storage layer.
type MessageFilter struct {
	ThreadID       int64
	VisibleSenders []int64
	SinceID        int64
	Limit          int
}
