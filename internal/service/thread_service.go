package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

const threadViewMessageLimit = 200

// ThreadService is the thread directory and membership ledger: it
// creates and locates threads, enforces the per-kind invariants and
// tracks who belongs where.
type ThreadService struct {
	threadRepo   repository.ThreadRepository
	messageRepo  repository.MessageRepository
	reactionRepo repository.ReactionRepository
	userRepo     repository.UserRepository
}

func NewThreadService(
	threadRepo repository.ThreadRepository,
	messageRepo repository.MessageRepository,
	reactionRepo repository.ReactionRepository,
	userRepo repository.UserRepository,
) *ThreadService {
	return &ThreadService{
		threadRepo:   threadRepo,
		messageRepo:  messageRepo,
		reactionRepo: reactionRepo,
		userRepo:     userRepo,
	}
}

// ThreadView is the full projection of one thread for one viewer.
type ThreadView struct {
	domain.Thread
	DisplayName string              `json:"display_name"`
	Members     []domain.Membership `json:"members"`
	Messages    []domain.Message    `json:"messages"`
}

// CreateDM finds or creates the dm thread between the caller and
// another user. Calling it twice never creates duplicates.
func (s *ThreadService) CreateDM(ctx context.Context, me domain.Identity, otherID int64) (*domain.Thread, error) {
	if otherID == me.UserID {
		return nil, ErrCannotDMSelf
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.threadRepo.FindDM(ctx, me.UserID, otherID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	thread := &domain.Thread{
		Kind:      domain.ThreadDM,
		CreatedBy: me.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	members := []domain.Membership{
		{UserID: me.UserID, Role: domain.RoleOwner, JoinedAt: now, LastReadAt: &now},
		{UserID: otherID, Role: domain.RoleMember, JoinedAt: now},
	}
	if err := s.threadRepo.Create(ctx, thread, members); err != nil {
		return nil, fmt.Errorf("creating dm thread: %w", err)
	}
	return thread, nil
}

// CreateGroup creates a group thread owned by the caller with at least
// two other distinct members.
func (s *ThreadService) CreateGroup(ctx context.Context, me domain.Identity, name string, memberIDs []int64) (*domain.Thread, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	ids := dedupeIDs(memberIDs, me.UserID)
	if len(ids) < 2 {
		return nil, ErrNotEnoughMembers
	}
	if err := s.requireUsersExist(ctx, ids); err != nil {
		return nil, err
	}

	taken, err := s.threadRepo.NameTaken(ctx, me.UserID, domain.ThreadGroup, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	now := time.Now()
	thread := &domain.Thread{
		Kind:      domain.ThreadGroup,
		Name:      &name,
		CreatedBy: me.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	members := []domain.Membership{
		{UserID: me.UserID, Role: domain.RoleOwner, JoinedAt: now, LastReadAt: &now},
	}
	for _, id := range ids {
		members = append(members, domain.Membership{UserID: id, Role: domain.RoleMember, JoinedAt: now})
	}
	if err := s.threadRepo.Create(ctx, thread, members); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("creating group thread: %w", err)
	}
	return thread, nil
}

// CreateBroadcast creates a broadcast thread with only the owner
// membership; subscribers join later.
func (s *ThreadService) CreateBroadcast(ctx context.Context, me domain.Identity, name string) (*domain.Thread, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	taken, err := s.threadRepo.NameTaken(ctx, me.UserID, domain.ThreadBroadcast, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	now := time.Now()
	thread := &domain.Thread{
		Kind:      domain.ThreadBroadcast,
		Name:      &name,
		CreatedBy: me.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	members := []domain.Membership{
		{UserID: me.UserID, Role: domain.RoleOwner, JoinedAt: now, LastReadAt: &now},
	}
	if err := s.threadRepo.Create(ctx, thread, members); err != nil {
		return nil, fmt.Errorf("creating broadcast thread: %w", err)
	}
	return thread, nil
}

// DeleteThread removes a thread with all memberships, messages and
// reactions. Owner or admin only.
func (s *ThreadService) DeleteThread(ctx context.Context, actor domain.Identity, threadID int64) error {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	if thread.CreatedBy != actor.UserID && !actor.Admin {
		return ErrNotThreadOwner
	}
	return s.threadRepo.Delete(ctx, threadID)
}

// AddMembers adds users to a group or broadcast thread. Owner only;
// users who are already members are skipped.
func (s *ThreadService) AddMembers(ctx context.Context, actor domain.Identity, threadID int64, userIDs []int64) error {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	if thread.Kind == domain.ThreadDM {
		return ErrKindMismatch
	}
	if thread.CreatedBy != actor.UserID {
		return ErrNotThreadOwner
	}

	ids := dedupeIDs(userIDs, thread.CreatedBy)
	if err := s.requireUsersExist(ctx, ids); err != nil {
		return err
	}

	now := time.Now()
	for _, id := range ids {
		m := &domain.Membership{ThreadID: threadID, UserID: id, Role: domain.RoleMember, JoinedAt: now}
		if err := s.threadRepo.AddMember(ctx, m); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("adding member %d: %w", id, err)
		}
	}
	return nil
}

// RemoveMember removes a user from a group or broadcast thread. Owner
// only; the owner membership itself can never be removed.
func (s *ThreadService) RemoveMember(ctx context.Context, actor domain.Identity, threadID, userID int64) error {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	if thread.Kind == domain.ThreadDM {
		return ErrKindMismatch
	}
	if thread.CreatedBy != actor.UserID {
		return ErrNotThreadOwner
	}
	if userID == thread.CreatedBy {
		return ErrOwnerImmutable
	}
	return s.threadRepo.RemoveMember(ctx, threadID, userID)
}

// Subscribe joins a broadcast thread. Re-subscribing is a no-op.
func (s *ThreadService) Subscribe(ctx context.Context, me domain.Identity, threadID int64) error {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	if thread.Kind != domain.ThreadBroadcast {
		return ErrKindMismatch
	}
	if thread.CreatedBy == me.UserID {
		return nil
	}

	m := &domain.Membership{ThreadID: threadID, UserID: me.UserID, Role: domain.RoleMember, JoinedAt: time.Now()}
	if err := s.threadRepo.AddMember(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("subscribing: %w", err)
	}
	return nil
}

// Unsubscribe leaves a broadcast thread. The owner cannot leave; a
// non-member unsubscribing is a no-op.
func (s *ThreadService) Unsubscribe(ctx context.Context, me domain.Identity, threadID int64) error {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return err
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	if thread.Kind != domain.ThreadBroadcast {
		return ErrKindMismatch
	}
	if thread.CreatedBy == me.UserID {
		return ErrOwnerImmutable
	}
	return s.threadRepo.RemoveMember(ctx, threadID, me.UserID)
}

// ListThreads returns summaries for every thread the viewer belongs
// to, newest activity first. Unread counts and previews respect the
// visibility filter so a subscriber never sees a badge for a reply
// they cannot read.
func (s *ThreadService) ListThreads(ctx context.Context, viewer domain.Identity) ([]domain.ThreadSummary, error) {
	threads, err := s.threadRepo.ListByUser(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ThreadSummary, 0, len(threads))
	for i := range threads {
		thread := threads[i]

		members, err := s.threadRepo.ListMembers(ctx, thread.ID)
		if err != nil {
			return nil, err
		}
		users, err := s.memberUsers(ctx, members)
		if err != nil {
			return nil, err
		}

		var membership *domain.Membership
		for j := range members {
			if members[j].UserID == viewer.UserID {
				membership = &members[j]
			}
		}
		if membership == nil {
			continue
		}

		f := visibilityFor(&thread, viewer.UserID)

		messageCount, err := s.messageRepo.Count(ctx, thread.ID)
		if err != nil {
			return nil, err
		}
		unread, err := s.messageRepo.UnreadCount(ctx, f, viewer.UserID, membership.LastReadAt)
		if err != nil {
			return nil, err
		}
		last, err := s.messageRepo.Last(ctx, f)
		if err != nil {
			return nil, err
		}
		if last != nil {
			last.SenderLabel = labelFor(users, last.SenderID)
		}

		summaries = append(summaries, domain.ThreadSummary{
			Thread:       thread,
			DisplayName:  displayNameFor(&thread, viewer.UserID, members, users),
			MemberCount:  len(members),
			MessageCount: messageCount,
			UnreadCount:  unread,
			LastMessage:  last,
		})
	}
	return summaries, nil
}

// GetThread returns the members and visible messages of one thread and
// marks the viewer read.
func (s *ThreadService) GetThread(ctx context.Context, viewer domain.Identity, threadID int64) (*ThreadView, error) {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	if _, err := s.requireMember(ctx, threadID, viewer.UserID); err != nil {
		return nil, err
	}

	members, err := s.threadRepo.ListMembers(ctx, threadID)
	if err != nil {
		return nil, err
	}
	users, err := s.memberUsers(ctx, members)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].UserLabel = labelFor(users, members[i].UserID)
	}

	f := visibilityFor(thread, viewer.UserID)
	f.Limit = threadViewMessageLimit
	messages, err := s.messageRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	messages, err = enrichMessages(ctx, messages, viewer.UserID, s.reactionRepo, s.userRepo)
	if err != nil {
		return nil, err
	}

	if err := s.threadRepo.MarkRead(ctx, threadID, viewer.UserID, time.Now()); err != nil {
		return nil, err
	}

	return &ThreadView{
		Thread:      *thread,
		DisplayName: displayNameFor(thread, viewer.UserID, members, users),
		Members:     members,
		Messages:    messages,
	}, nil
}

func (s *ThreadService) requireMember(ctx context.Context, threadID, userID int64) (*domain.Membership, error) {
	m, err := s.threadRepo.GetMember(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotThreadMember
	}
	return m, nil
}

func (s *ThreadService) memberUsers(ctx context.Context, members []domain.Membership) (map[int64]domain.User, error) {
	ids := make([]int64, len(members))
	for i := range members {
		ids[i] = members[i].UserID
	}
	return s.userRepo.GetByIDs(ctx, ids)
}

func (s *ThreadService) requireUsersExist(ctx context.Context, ids []int64) error {
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return ErrUserNotFound
		}
	}
	return nil
}

// displayNameFor shows the thread name when it has one, otherwise the
// labels of the other members (up to three).
func displayNameFor(t *domain.Thread, viewerID int64, members []domain.Membership, users map[int64]domain.User) string {
	if t.Kind != domain.ThreadDM && t.Name != nil && *t.Name != "" {
		return *t.Name
	}

	var names []string
	for _, m := range members {
		if m.UserID == viewerID {
			continue
		}
		names = append(names, labelFor(users, m.UserID))
	}
	if len(names) == 0 {
		return "Chat"
	}
	if len(names) > 3 {
		return strings.Join(names[:3], ", ") + "…"
	}
	return strings.Join(names, ", ")
}

func dedupeIDs(ids []int64, exclude int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
