package service

import (
	"context"
	"errors"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/notify"
	"github.com/rosterbase/chat/internal/repository"
)

const pollMaxReturn = 100

// PollService wraps visible-message reads in a bounded wait loop. A
// request blocks until something becomes visible, the deadline passes
// (empty non-error response; the client re-issues the call) or the
// caller disconnects.
type PollService struct {
	threadRepo   repository.ThreadRepository
	messageRepo  repository.MessageRepository
	reactionRepo repository.ReactionRepository
	userRepo     repository.UserRepository
	broker       *notify.Broker

	interval time.Duration
	deadline time.Duration
}

func NewPollService(
	threadRepo repository.ThreadRepository,
	messageRepo repository.MessageRepository,
	reactionRepo repository.ReactionRepository,
	userRepo repository.UserRepository,
	broker *notify.Broker,
	interval, deadline time.Duration,
) *PollService {
	return &PollService{
		threadRepo:   threadRepo,
		messageRepo:  messageRepo,
		reactionRepo: reactionRepo,
		userRepo:     userRepo,
		broker:       broker,
		interval:     interval,
		deadline:     deadline,
	}
}

// Poll returns messages visible to the viewer with id > sinceID,
// waiting up to the deadline for new ones. A non-empty result marks
// the viewer read. An empty slice is a normal response, never an
// error; storage errors are fatal for the request.
func (s *PollService) Poll(ctx context.Context, viewer domain.Identity, threadID, sinceID int64) ([]domain.Message, error) {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	member, err := s.threadRepo.GetMember(ctx, threadID, viewer.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotThreadMember
	}

	f := visibilityFor(thread, viewer.UserID)
	f.SinceID = sinceID
	f.Limit = pollMaxReturn

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	wake, unsubscribe := s.broker.Subscribe(threadID)
	defer unsubscribe()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		messages, err := s.messageRepo.List(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return s.finish(ctx)
			}
			return nil, err
		}
		if len(messages) > 0 {
			messages, err = enrichMessages(ctx, messages, viewer.UserID, s.reactionRepo, s.userRepo)
			if err != nil {
				return nil, err
			}
			if err := s.threadRepo.MarkRead(ctx, threadID, viewer.UserID, time.Now()); err != nil {
				return nil, err
			}
			return messages, nil
		}

		select {
		case <-ctx.Done():
			return s.finish(ctx)
		case <-wake:
			// New activity on the thread; re-check immediately.
		case <-ticker.C:
			// Safety-net tick in case a write raced the subscription.
		}
	}
}

// finish turns the poll deadline into an empty normal response and a
// client disconnect into an error that stops the loop.
func (s *PollService) finish(ctx context.Context) ([]domain.Message, error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return []domain.Message{}, nil
	}
	return nil, ctx.Err()
}
