package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSendRequiresMembershipAndBody(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	thread := env.mustGroup(t, 1, "team", 2, 3)

	if _, err := env.messages.Send(ctx, ident(1), thread.ID, SendMessageInput{Body: "   "}); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("blank body: expected ErrEmptyBody, got %v", err)
	}
	if _, err := env.messages.Send(ctx, ident(4), thread.ID, SendMessageInput{Body: "hi"}); !errors.Is(err, ErrNotThreadMember) {
		t.Fatalf("non-member: expected ErrNotThreadMember, got %v", err)
	}
	if _, err := env.messages.Send(ctx, ident(1), 999, SendMessageInput{Body: "hi"}); !errors.Is(err, ErrThreadNotFound) {
		t.Fatalf("missing thread: expected ErrThreadNotFound, got %v", err)
	}

	msg := env.mustSend(t, 1, thread.ID, "  hello  ")
	if msg.Body != "hello" {
		t.Fatalf("body not trimmed: %q", msg.Body)
	}
}

func TestSendTruncatesOversizedBody(t *testing.T) {
	env := newTestEnv(t)
	thread := env.mustGroup(t, 1, "team", 2, 3)

	msg := env.mustSend(t, 1, thread.ID, strings.Repeat("a", maxBodyLen+50))
	if len(msg.Body) != maxBodyLen {
		t.Fatalf("expected body capped at %d, got %d", maxBodyLen, len(msg.Body))
	}
}

func TestTruncationNeverSplitsARune(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	thread := env.mustGroup(t, 1, "team", 2, 3)

	// "é" is two bytes and straddles the byte limit; the cut must land
	// before it, never between its bytes.
	msg := env.mustSend(t, 1, thread.ID, strings.Repeat("a", maxBodyLen-1)+"é")
	if !utf8.ValidString(msg.Body) {
		t.Fatalf("stored body is not valid UTF-8, tail %q", msg.Body[len(msg.Body)-2:])
	}
	if len(msg.Body) != maxBodyLen-1 {
		t.Fatalf("expected %d bytes after rune-safe cut, got %d", maxBodyLen-1, len(msg.Body))
	}

	edited, err := env.messages.Edit(ctx, ident(1), msg.ID, EditMessageInput{
		Body: strings.Repeat("b", maxBodyLen-1) + "☃",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !utf8.ValidString(edited.Body) {
		t.Fatalf("edited body is not valid UTF-8, tail %q", edited.Body[len(edited.Body)-2:])
	}
}

func TestSendRejectsReplyFromAnotherThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	threadA := env.mustGroup(t, 1, "team a", 2, 3)
	threadB := env.mustGroup(t, 1, "team b", 2, 3)
	other := env.mustSend(t, 1, threadB.ID, "elsewhere")

	_, err := env.messages.Send(ctx, ident(2), threadA.ID, SendMessageInput{Body: "reply", ReplyTo: &other.ID})
	if !errors.Is(err, ErrReplyNotFound) {
		t.Fatalf("cross-thread reply: expected ErrReplyNotFound, got %v", err)
	}
}

func TestBroadcastSubscriberPostingRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	thread := env.mustBroadcast(t, 1, "announcements", 2, 3)

	// No owner message yet, so a subscriber has nothing to reply to.
	_, err := env.messages.Send(ctx, ident(2), thread.ID, SendMessageInput{Body: "first?"})
	if !errors.Is(err, ErrNoOwnerMessage) {
		t.Fatalf("expected ErrNoOwnerMessage, got %v", err)
	}

	post := env.mustSend(t, 1, thread.ID, "v1 shipped")
	if post.ReplyTo != nil {
		t.Fatalf("owner post should be top-level, got reply to %d", *post.ReplyTo)
	}

	// Omitted target resolves to the owner's latest message.
	reply := env.mustSend(t, 2, thread.ID, "nice")
	if reply.ReplyTo == nil || *reply.ReplyTo != post.ID {
		t.Fatalf("expected reply to %d, got %+v", post.ID, reply.ReplyTo)
	}

	later := env.mustSend(t, 1, thread.ID, "v1.0.1 too")
	reply2 := env.mustSend(t, 3, thread.ID, "thanks")
	if reply2.ReplyTo == nil || *reply2.ReplyTo != later.ID {
		t.Fatalf("expected reply to latest owner post %d, got %+v", later.ID, reply2.ReplyTo)
	}
}

func TestBroadcastSubscriberCannotReplyToPrivateReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	thread := env.mustBroadcast(t, 1, "announcements", 2, 3)

	post := env.mustSend(t, 1, thread.ID, "update")
	bobReply := env.mustReply(t, 2, thread.ID, "question", post.ID)

	// Carol cannot see Bob's reply, so she cannot target it either.
	_, err := env.messages.Send(ctx, ident(3), thread.ID, SendMessageInput{Body: "me too", ReplyTo: &bobReply.ID})
	if !errors.Is(err, ErrReplyNotFound) {
		t.Fatalf("expected ErrReplyNotFound, got %v", err)
	}

	// The owner can reply to it.
	if _, err := env.messages.Send(ctx, ident(1), thread.ID, SendMessageInput{Body: "answer", ReplyTo: &bobReply.ID}); err != nil {
		t.Fatalf("owner replying to subscriber: %v", err)
	}
}

func TestBroadcastVisibilityInThreadView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	thread := env.mustBroadcast(t, 1, "announcements", 2, 3)

	post := env.mustSend(t, 1, thread.ID, "release")
	env.mustReply(t, 2, thread.ID, "bob says hi", post.ID)
	env.mustReply(t, 3, thread.ID, "carol says hi", post.ID)

	view, err := env.threads.GetThread(ctx, ident(2), thread.ID)
	if err != nil {
		t.Fatalf("GetThread as bob: %v", err)
	}
	got := bodies(view.Messages)
	want := []string{"release", "bob says hi"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("bob sees %v, want %v", got, want)
	}

	view, err = env.threads.GetThread(ctx, ident(1), thread.ID)
	if err != nil {
		t.Fatalf("GetThread as owner: %v", err)
	}
	if len(view.Messages) != 3 {
		t.Fatalf("owner sees %d messages, want 3", len(view.Messages))
	}
}

func TestEditAndDeletePermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	thread := env.mustGroup(t, 1, "team", 2, 3)
	msg := env.mustSend(t, 2, thread.ID, "typo")

	if _, err := env.messages.Edit(ctx, ident(3), msg.ID, EditMessageInput{Body: "fixed"}); !errors.Is(err, ErrNotMessageSender) {
		t.Fatalf("other member edit: expected ErrNotMessageSender, got %v", err)
	}

	edited, err := env.messages.Edit(ctx, ident(2), msg.ID, EditMessageInput{Body: "fixed"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Body != "fixed" {
		t.Fatalf("body not updated: %q", edited.Body)
	}
	if edited.EditedAt == nil {
		t.Fatal("expected edited_at to be set")
	}

	if err := env.messages.Delete(ctx, ident(3), msg.ID); !errors.Is(err, ErrNotMessageSender) {
		t.Fatalf("other member delete: expected ErrNotMessageSender, got %v", err)
	}
	if err := env.messages.Delete(ctx, admin(4), msg.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := env.messages.Delete(ctx, ident(2), msg.ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("deleting twice: expected ErrMessageNotFound, got %v", err)
	}
}
