package repository

import (
	"context"
	"time"

	"github.com/rosterbase/chat/internal/domain"
)

type ThreadRepository interface {
	// Create inserts the thread and its initial memberships in one
	// transaction; the thread is never observable without them.
	Create(ctx context.Context, thread *domain.Thread, members []domain.Membership) error
	GetByID(ctx context.Context, id int64) (*domain.Thread, error)
	// FindDM returns the dm thread whose membership set is exactly
	// {userA, userB}, or nil.
	FindDM(ctx context.Context, userA, userB int64) (*domain.Thread, error)
	// NameTaken reports whether the owner already has a thread of this
	// kind with the same name, compared case-insensitively.
	NameTaken(ctx context.Context, ownerID int64, kind domain.ThreadKind, name string) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Thread, error)
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, m *domain.Membership) error
	RemoveMember(ctx context.Context, threadID, userID int64) error
	GetMember(ctx context.Context, threadID, userID int64) (*domain.Membership, error)
	ListMembers(ctx context.Context, threadID int64) ([]domain.Membership, error)
	MarkRead(ctx context.Context, threadID, userID int64, at time.Time) error
}

type MessageRepository interface {
	// Create inserts the message, bumps the thread's updated_at and
	// advances the sender's read watermark in one transaction.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Message, error)
	// List returns messages matching the filter ordered by
	// (created_at, message_id) ascending.
	List(ctx context.Context, f domain.MessageFilter) ([]domain.Message, error)
	// Last returns the newest message matching the filter, or nil.
	Last(ctx context.Context, f domain.MessageFilter) (*domain.Message, error)
	// LatestBySender returns the newest message in the thread authored
	// by senderID, or nil.
	LatestBySender(ctx context.Context, threadID, senderID int64) (*domain.Message, error)
	Count(ctx context.Context, threadID int64) (int, error)
	// UnreadCount counts messages matching the filter that were not
	// sent by viewerID and arrived after lastReadAt (all of them when
	// lastReadAt is nil).
	UnreadCount(ctx context.Context, f domain.MessageFilter, viewerID int64, lastReadAt *time.Time) (int, error)
	Update(ctx context.Context, msg *domain.Message) error
	Delete(ctx context.Context, id int64) error
}

type ReactionRepository interface {
	// Set upserts the (message, user) row; a user has at most one
	// reaction per message.
	Set(ctx context.Context, r *domain.Reaction) error
	Clear(ctx context.Context, messageID, userID int64) error
	Summary(ctx context.Context, messageID, viewerID int64) (*domain.ReactionSummary, error)
	Summaries(ctx context.Context, messageIDs []int64, viewerID int64) (map[int64]domain.ReactionSummary, error)
}

type AccessRepository interface {
	// HasModule reports whether the user holds an access grant for an
	// enabled module.
	HasModule(ctx context.Context, userID int64, moduleKey string) (bool, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error)
}
