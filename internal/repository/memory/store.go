// Package memory holds an in-process implementation of the repository
// interfaces. It backs the service tests and the DB_DRIVER=memory dev
// mode; the postgres package is the production implementation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

type Store struct {
	mu sync.Mutex

	nextThreadID  int64
	nextMessageID int64

	threads   map[int64]*domain.Thread
	members   map[int64]map[int64]*domain.Membership // thread id → user id
	messages  map[int64]*domain.Message
	reactions map[int64]map[int64]*domain.Reaction // message id → user id

	users   map[int64]domain.User
	modules map[string]bool          // module key → enabled
	grants  map[int64]map[string]bool // user id → module key → has access
}

func NewStore() *Store {
	return &Store{
		threads:   make(map[int64]*domain.Thread),
		members:   make(map[int64]map[int64]*domain.Membership),
		messages:  make(map[int64]*domain.Message),
		reactions: make(map[int64]map[int64]*domain.Reaction),
		users:     make(map[int64]domain.User),
		modules:   make(map[string]bool),
		grants:    make(map[int64]map[string]bool),
	}
}

// Seeding helpers for tests and dev mode.

func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) EnableModule(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[key] = true
}

func (s *Store) Grant(userID int64, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[userID] == nil {
		s.grants[userID] = make(map[string]bool)
	}
	s.grants[userID][key] = true
}

// ThreadRepository

func (s *Store) Create(_ context.Context, t *domain.Thread, members []domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirrors the partial unique index on (created_by, kind, LOWER(name)).
	if t.Name != nil {
		for _, existing := range s.threads {
			if existing.CreatedBy == t.CreatedBy && existing.Kind == t.Kind &&
				existing.Name != nil && strings.EqualFold(*existing.Name, *t.Name) {
				return repository.ErrDuplicate
			}
		}
	}

	s.nextThreadID++
	t.ID = s.nextThreadID

	byUser := make(map[int64]*domain.Membership, len(members))
	for i := range members {
		m := members[i]
		m.ThreadID = t.ID
		if _, ok := byUser[m.UserID]; ok {
			return repository.ErrDuplicate
		}
		byUser[m.UserID] = &m
	}

	stored := *t
	s.threads[t.ID] = &stored
	s.members[t.ID] = byUser
	return nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (s *Store) FindDM(_ context.Context, userA, userB int64) (*domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.threads {
		if t.Kind != domain.ThreadDM {
			continue
		}
		members := s.members[id]
		if len(members) != 2 {
			continue
		}
		if _, okA := members[userA]; !okA {
			continue
		}
		if _, okB := members[userB]; !okB {
			continue
		}
		out := *t
		return &out, nil
	}
	return nil, nil
}

func (s *Store) NameTaken(_ context.Context, ownerID int64, kind domain.ThreadKind, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.threads {
		if t.CreatedBy == ownerID && t.Kind == kind && t.Name != nil && strings.EqualFold(*t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListByUser(_ context.Context, userID int64) ([]domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var threads []domain.Thread
	for id, t := range s.threads {
		if _, ok := s.members[id][userID]; ok {
			threads = append(threads, *t)
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].UpdatedAt.After(threads[j].UpdatedAt)
	})
	return threads, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, id)
	delete(s.members, id)
	for mid, msg := range s.messages {
		if msg.ThreadID == id {
			delete(s.messages, mid)
			delete(s.reactions, mid)
		}
	}
	return nil
}

func (s *Store) AddMember(_ context.Context, m *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.members[m.ThreadID]
	if members == nil {
		members = make(map[int64]*domain.Membership)
		s.members[m.ThreadID] = members
	}
	if _, ok := members[m.UserID]; ok {
		return repository.ErrDuplicate
	}
	stored := *m
	members[m.UserID] = &stored
	return nil
}

func (s *Store) RemoveMember(_ context.Context, threadID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[threadID], userID)
	return nil
}

func (s *Store) GetMember(_ context.Context, threadID, userID int64) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[threadID][userID]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (s *Store) ListMembers(_ context.Context, threadID int64) ([]domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []domain.Membership
	for _, m := range s.members[threadID] {
		members = append(members, *m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

func (s *Store) MarkRead(_ context.Context, threadID, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[threadID][userID]; ok {
		t := at
		m.LastReadAt = &t
	}
	return nil
}

// MessageRepository

func (s *Store) CreateMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMessageID++
	msg.ID = s.nextMessageID

	stored := *msg
	s.messages[msg.ID] = &stored

	if t, ok := s.threads[msg.ThreadID]; ok {
		t.UpdatedAt = msg.CreatedAt
	}
	if m, ok := s.members[msg.ThreadID][msg.SenderID]; ok {
		at := msg.CreatedAt
		m.LastReadAt = &at
	}
	return nil
}

func (s *Store) GetMessageByID(_ context.Context, id int64) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	out := *msg
	return &out, nil
}

func (s *Store) List(_ context.Context, f domain.MessageFilter) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := s.matchingLocked(f)
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) Last(_ context.Context, f domain.MessageFilter) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := s.matchingLocked(f)
	if len(matches) == 0 {
		return nil, nil
	}
	out := matches[len(matches)-1]
	return &out, nil
}

func (s *Store) LatestBySender(_ context.Context, threadID, senderID int64) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.Message
	for _, msg := range s.messages {
		if msg.ThreadID != threadID || msg.SenderID != senderID {
			continue
		}
		if latest == nil || msg.CreatedAt.After(latest.CreatedAt) ||
			(msg.CreatedAt.Equal(latest.CreatedAt) && msg.ID > latest.ID) {
			latest = msg
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *Store) Count(_ context.Context, threadID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, msg := range s.messages {
		if msg.ThreadID == threadID {
			count++
		}
	}
	return count, nil
}

func (s *Store) UnreadCount(_ context.Context, f domain.MessageFilter, viewerID int64, lastReadAt *time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, msg := range s.matchingLocked(f) {
		if msg.SenderID == viewerID {
			continue
		}
		if lastReadAt != nil && !msg.CreatedAt.After(*lastReadAt) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) UpdateMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[msg.ID]
	if !ok {
		return nil
	}
	now := time.Now()
	stored.Body = msg.Body
	stored.EditedAt = &now
	return nil
}

func (s *Store) DeleteMessage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	delete(s.reactions, id)
	return nil
}

// matchingLocked returns messages matching the filter ordered by
// (created_at, message_id). Callers hold s.mu.
func (s *Store) matchingLocked(f domain.MessageFilter) []domain.Message {
	var matches []domain.Message
	for _, msg := range s.messages {
		if msg.ThreadID != f.ThreadID || msg.ID <= f.SinceID {
			continue
		}
		if len(f.VisibleSenders) > 0 && !containsID(f.VisibleSenders, msg.SenderID) {
			continue
		}
		matches = append(matches, *msg)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// ReactionRepository

func (s *Store) Set(_ context.Context, r *domain.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser := s.reactions[r.MessageID]
	if byUser == nil {
		byUser = make(map[int64]*domain.Reaction)
		s.reactions[r.MessageID] = byUser
	}
	stored := *r
	byUser[r.UserID] = &stored
	return nil
}

func (s *Store) Clear(_ context.Context, messageID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reactions[messageID], userID)
	return nil
}

func (s *Store) Summary(ctx context.Context, messageID, viewerID int64) (*domain.ReactionSummary, error) {
	summaries, err := s.Summaries(ctx, []int64{messageID}, viewerID)
	if err != nil {
		return nil, err
	}
	summary, ok := summaries[messageID]
	if !ok {
		summary = domain.ReactionSummary{Counts: map[string]int{}}
	}
	return &summary, nil
}

func (s *Store) Summaries(_ context.Context, messageIDs []int64, viewerID int64) (map[int64]domain.ReactionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int64]domain.ReactionSummary)
	for _, messageID := range messageIDs {
		byUser := s.reactions[messageID]
		if len(byUser) == 0 {
			continue
		}
		summary := domain.ReactionSummary{Counts: map[string]int{}}
		for userID, r := range byUser {
			summary.Counts[r.Emoji]++
			if userID == viewerID {
				summary.MyReaction = r.Emoji
			}
		}
		result[messageID] = summary
	}
	return result, nil
}

// AccessRepository

func (s *Store) HasModule(_ context.Context, userID int64, moduleKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modules[moduleKey] && s.grants[userID][moduleKey], nil
}

// UserRepository

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []int64) (map[int64]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make(map[int64]domain.User)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users[id] = u
		}
	}
	return users, nil
}
