package memory

import (
	"context"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

// Accessor methods exposing the store as the individual repository
// interfaces, mirroring how the postgres constructors are wired.

func (s *Store) Threads() repository.ThreadRepository { return s }

func (s *Store) Messages() repository.MessageRepository { return &messageView{s} }

func (s *Store) Reactions() repository.ReactionRepository { return s }

func (s *Store) Access() repository.AccessRepository { return s }

func (s *Store) Users() repository.UserRepository { return &userView{s} }

type messageView struct{ s *Store }

func (v *messageView) Create(ctx context.Context, msg *domain.Message) error {
	return v.s.CreateMessage(ctx, msg)
}

func (v *messageView) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	return v.s.GetMessageByID(ctx, id)
}

func (v *messageView) List(ctx context.Context, f domain.MessageFilter) ([]domain.Message, error) {
	return v.s.List(ctx, f)
}

func (v *messageView) Last(ctx context.Context, f domain.MessageFilter) (*domain.Message, error) {
	return v.s.Last(ctx, f)
}

func (v *messageView) LatestBySender(ctx context.Context, threadID, senderID int64) (*domain.Message, error) {
	return v.s.LatestBySender(ctx, threadID, senderID)
}

func (v *messageView) Count(ctx context.Context, threadID int64) (int, error) {
	return v.s.Count(ctx, threadID)
}

func (v *messageView) UnreadCount(ctx context.Context, f domain.MessageFilter, viewerID int64, lastReadAt *time.Time) (int, error) {
	return v.s.UnreadCount(ctx, f, viewerID, lastReadAt)
}

func (v *messageView) Update(ctx context.Context, msg *domain.Message) error {
	return v.s.UpdateMessage(ctx, msg)
}

func (v *messageView) Delete(ctx context.Context, id int64) error {
	return v.s.DeleteMessage(ctx, id)
}

type userView struct{ s *Store }

func (v *userView) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return v.s.GetUserByID(ctx, id)
}

func (v *userView) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	return v.s.GetUsersByIDs(ctx, ids)
}
