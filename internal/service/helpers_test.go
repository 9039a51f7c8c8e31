package service

import (
	"context"
	"testing"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/notify"
	"github.com/rosterbase/chat/internal/repository/memory"
)

// testEnv wires all services over one in-memory store with a few
// seeded users: alice (1), bob (2), carol (3) and dave (4).
type testEnv struct {
	store     *memory.Store
	broker    *notify.Broker
	access    *AccessService
	threads   *ThreadService
	messages  *MessageService
	reactions *ReactionService
	polls     *PollService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	store.EnableModule(ModuleKeyChat)
	seed := []struct {
		id   int64
		name string
	}{
		{1, "Alice"},
		{2, "Bob"},
		{3, "Carol"},
		{4, "Dave"},
	}
	for _, u := range seed {
		name := u.name
		store.AddUser(domain.User{ID: u.id, DisplayName: &name})
		store.Grant(u.id, ModuleKeyChat)
	}

	broker := notify.NewBroker()
	messages := NewMessageService(store.Threads(), store.Messages())
	messages.SetBroker(broker)

	return &testEnv{
		store:     store,
		broker:    broker,
		access:    NewAccessService(store.Access()),
		threads:   NewThreadService(store.Threads(), store.Messages(), store.Reactions(), store.Users()),
		messages:  messages,
		reactions: NewReactionService(store.Threads(), store.Messages(), store.Reactions()),
		polls: NewPollService(
			store.Threads(), store.Messages(), store.Reactions(), store.Users(),
			broker, 10*time.Millisecond, 200*time.Millisecond,
		),
	}
}

func ident(id int64) domain.Identity {
	return domain.Identity{UserID: id}
}

func admin(id int64) domain.Identity {
	return domain.Identity{UserID: id, Admin: true}
}

func (e *testEnv) mustGroup(t *testing.T, owner int64, name string, members ...int64) *domain.Thread {
	t.Helper()
	thread, err := e.threads.CreateGroup(context.Background(), ident(owner), name, members)
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	return thread
}

func (e *testEnv) mustBroadcast(t *testing.T, owner int64, name string, subscribers ...int64) *domain.Thread {
	t.Helper()
	thread, err := e.threads.CreateBroadcast(context.Background(), ident(owner), name)
	if err != nil {
		t.Fatalf("CreateBroadcast: %v", err)
	}
	for _, sub := range subscribers {
		if err := e.threads.Subscribe(context.Background(), ident(sub), thread.ID); err != nil {
			t.Fatalf("Subscribe user %d: %v", sub, err)
		}
	}
	return thread
}

func (e *testEnv) mustSend(t *testing.T, sender, threadID int64, body string) *domain.Message {
	t.Helper()
	msg, err := e.messages.Send(context.Background(), ident(sender), threadID, SendMessageInput{Body: body})
	if err != nil {
		t.Fatalf("Send %q as user %d: %v", body, sender, err)
	}
	return msg
}

func (e *testEnv) mustReply(t *testing.T, sender, threadID int64, body string, replyTo int64) *domain.Message {
	t.Helper()
	msg, err := e.messages.Send(context.Background(), ident(sender), threadID, SendMessageInput{Body: body, ReplyTo: &replyTo})
	if err != nil {
		t.Fatalf("Send reply %q as user %d: %v", body, sender, err)
	}
	return msg
}

func bodies(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}
