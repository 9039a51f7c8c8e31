package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/notify"
	"github.com/rosterbase/chat/internal/repository"
)

const maxBodyLen = 4000

// MessageService appends, edits and deletes messages and enforces the
// per-kind posting rules.
type MessageService struct {
	threadRepo  repository.ThreadRepository
	messageRepo repository.MessageRepository
	broker      *notify.Broker
}

func NewMessageService(
	threadRepo repository.ThreadRepository,
	messageRepo repository.MessageRepository,
) *MessageService {
	return &MessageService{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
	}
}

// SetBroker wires the long-poll wakeup broker (optional dependency).
func (s *MessageService) SetBroker(b *notify.Broker) {
	s.broker = b
}

// truncateBody caps the body at maxBodyLen bytes without splitting a
// multi-byte rune at the boundary.
func truncateBody(body string) string {
	if len(body) <= maxBodyLen {
		return body
	}
	cut := maxBodyLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

type SendMessageInput struct {
	Body    string `json:"body"`
	ReplyTo *int64 `json:"reply_to_message_id,omitempty"`
}

type EditMessageInput struct {
	Body string `json:"body"`
}

// Send appends a message to a thread. In a broadcast, the owner may
// post top-level; a subscriber may only reply to an owner message, and
// an omitted reply target resolves to the owner's latest message.
func (s *MessageService) Send(ctx context.Context, sender domain.Identity, threadID int64, input SendMessageInput) (*domain.Message, error) {
	body := truncateBody(strings.TrimSpace(input.Body))
	if body == "" {
		return nil, ErrEmptyBody
	}

	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	member, err := s.threadRepo.GetMember(ctx, threadID, sender.UserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotThreadMember
	}

	replyTo, err := s.resolveReplyTo(ctx, thread, sender.UserID, input.ReplyTo)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ThreadID:  threadID,
		SenderID:  sender.UserID,
		Body:      body,
		ReplyTo:   replyTo,
		CreatedAt: time.Now(),
	}
	// The repo commits the insert, the thread bump and the sender's
	// watermark together.
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if s.broker != nil {
		s.broker.Notify(threadID)
	}
	return msg, nil
}

// resolveReplyTo validates the reply target and applies the broadcast
// posting rules.
func (s *MessageService) resolveReplyTo(ctx context.Context, thread *domain.Thread, senderID int64, replyTo *int64) (*int64, error) {
	subscriberPost := thread.Kind == domain.ThreadBroadcast && senderID != thread.CreatedBy

	if replyTo == nil {
		if !subscriberPost {
			return nil, nil
		}
		// Subscribers can only reply; fall back to the owner's latest
		// message.
		latest, err := s.messageRepo.LatestBySender(ctx, thread.ID, thread.CreatedBy)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, ErrNoOwnerMessage
		}
		id := latest.ID
		return &id, nil
	}

	target, err := s.messageRepo.GetByID(ctx, *replyTo)
	if err != nil {
		return nil, err
	}
	if target == nil || target.ThreadID != thread.ID {
		return nil, ErrReplyNotFound
	}
	if subscriberPost && !messageVisible(visibilityFor(thread, senderID), target) {
		// A subscriber must not reply to another subscriber's private
		// reply.
		return nil, ErrReplyNotFound
	}
	return replyTo, nil
}

// Edit replaces a message body. Original sender or admin only.
func (s *MessageService) Edit(ctx context.Context, actor domain.Identity, messageID int64, input EditMessageInput) (*domain.Message, error) {
	body := truncateBody(strings.TrimSpace(input.Body))
	if body == "" {
		return nil, ErrEmptyBody
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != actor.UserID && !actor.Admin {
		return nil, ErrNotMessageSender
	}

	msg.Body = body
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	updated, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.Notify(msg.ThreadID)
	}
	return updated, nil
}

// Delete removes a message and its reactions. Original sender or admin
// only.
func (s *MessageService) Delete(ctx context.Context, actor domain.Identity, messageID int64) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != actor.UserID && !actor.Admin {
		return ErrNotMessageSender
	}
	return s.messageRepo.Delete(ctx, messageID)
}
