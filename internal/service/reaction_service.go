package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

// allowedReactions is the closed emoji set a reaction may use.
var allowedReactions = map[string]bool{
	"👍": true,
	"❤️": true,
	"😂": true,
	"🎉": true,
	"😢": true,
}

// AllowedReactions returns the emoji allow-list for clients.
func AllowedReactions() []string {
	return []string{"👍", "❤️", "😂", "🎉", "😢"}
}

// ReactionService keeps at most one reaction per (message, viewer) and
// recomputes per-emoji counts after every change.
type ReactionService struct {
	threadRepo   repository.ThreadRepository
	messageRepo  repository.MessageRepository
	reactionRepo repository.ReactionRepository
}

func NewReactionService(
	threadRepo repository.ThreadRepository,
	messageRepo repository.MessageRepository,
	reactionRepo repository.ReactionRepository,
) *ReactionService {
	return &ReactionService{
		threadRepo:   threadRepo,
		messageRepo:  messageRepo,
		reactionRepo: reactionRepo,
	}
}

// React sets the viewer's reaction on a message, or clears it when
// emoji is empty. The viewer must be able to read the message. Setting
// "A" then "B" leaves one row with "B"; clearing an absent reaction is
// a harmless success.
func (s *ReactionService) React(ctx context.Context, viewer domain.Identity, messageID int64, emoji string) (*domain.ReactionSummary, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	thread, err := s.threadRepo.GetByID(ctx, msg.ThreadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	member, err := s.threadRepo.GetMember(ctx, msg.ThreadID, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotThreadMember
	}
	if !messageVisible(visibilityFor(thread, viewer.UserID), msg) {
		return nil, ErrNotThreadMember
	}

	if emoji == "" {
		if err := s.reactionRepo.Clear(ctx, messageID, viewer.UserID); err != nil {
			return nil, fmt.Errorf("clearing reaction: %w", err)
		}
	} else {
		if !allowedReactions[emoji] {
			return nil, ErrEmojiNotAllowed
		}
		r := &domain.Reaction{
			MessageID: messageID,
			UserID:    viewer.UserID,
			Emoji:     emoji,
			CreatedAt: time.Now(),
		}
		if err := s.reactionRepo.Set(ctx, r); err != nil {
			// A concurrent upsert from the same user resolves
			// last-write-wins; anything else is fatal.
			if !errors.Is(err, repository.ErrDuplicate) {
				return nil, fmt.Errorf("setting reaction: %w", err)
			}
		}
	}

	return s.reactionRepo.Summary(ctx, messageID, viewer.UserID)
}
