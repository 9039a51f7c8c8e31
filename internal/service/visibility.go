package service

import (
	"context"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

// visibilityFor builds the message filter for one viewer in one thread.
// In a broadcast, a viewer who is not the owner sees only the owner's
// messages and their own; other subscribers' replies stay private.
// Every read path (thread view, poll, unread counts, previews, reaction
// checks) must go through this filter.
func visibilityFor(t *domain.Thread, viewerID int64) domain.MessageFilter {
	f := domain.MessageFilter{ThreadID: t.ID}
	if t.Kind == domain.ThreadBroadcast && viewerID != t.CreatedBy {
		f.VisibleSenders = []int64{t.CreatedBy, viewerID}
	}
	return f
}

// messageVisible reports whether a single message passes the filter.
func messageVisible(f domain.MessageFilter, msg *domain.Message) bool {
	if msg.ThreadID != f.ThreadID {
		return false
	}
	if len(f.VisibleSenders) == 0 {
		return true
	}
	for _, sender := range f.VisibleSenders {
		if msg.SenderID == sender {
			return true
		}
	}
	return false
}

// enrichMessages attaches reaction summaries and sender labels to a
// batch of messages, computed once per request.
func enrichMessages(
	ctx context.Context,
	msgs []domain.Message,
	viewerID int64,
	reactionRepo repository.ReactionRepository,
	userRepo repository.UserRepository,
) ([]domain.Message, error) {
	if len(msgs) == 0 {
		return msgs, nil
	}

	messageIDs := make([]int64, len(msgs))
	senderSet := make(map[int64]struct{})
	for i := range msgs {
		messageIDs[i] = msgs[i].ID
		senderSet[msgs[i].SenderID] = struct{}{}
	}

	summaries, err := reactionRepo.Summaries(ctx, messageIDs, viewerID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]int64, 0, len(senderSet))
	for id := range senderSet {
		senderIDs = append(senderIDs, id)
	}
	users, err := userRepo.GetByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		if summary, ok := summaries[msgs[i].ID]; ok {
			msgs[i].Reactions = summary.Counts
			msgs[i].MyReaction = summary.MyReaction
		} else {
			msgs[i].Reactions = map[string]int{}
		}
		msgs[i].SenderLabel = labelFor(users, msgs[i].SenderID)
	}
	return msgs, nil
}

func labelFor(users map[int64]domain.User, userID int64) string {
	if u, ok := users[userID]; ok {
		return u.Label()
	}
	missing := domain.User{ID: userID}
	return missing.Label()
}
