package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

func newThread(owner int64, kind domain.ThreadKind, name string) (*domain.Thread, []domain.Membership) {
	now := time.Now()
	t := &domain.Thread{Kind: kind, Name: &name, CreatedBy: owner, CreatedAt: now, UpdatedAt: now}
	members := []domain.Membership{
		{UserID: owner, Role: domain.RoleOwner, JoinedAt: now},
	}
	return t, members
}

func TestCreateEnforcesOwnerNameUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	thread, members := newThread(1, domain.ThreadGroup, "team")
	if err := store.Create(ctx, thread, members); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same owner, same kind, case-folded name collides even when the
	// pre-check was raced past.
	dup, dupMembers := newThread(1, domain.ThreadGroup, "TEAM")
	if err := store.Create(ctx, dup, dupMembers); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// A different kind or a different owner does not collide.
	other, otherMembers := newThread(1, domain.ThreadBroadcast, "team")
	if err := store.Create(ctx, other, otherMembers); err != nil {
		t.Fatalf("Create other kind: %v", err)
	}
	foreign, foreignMembers := newThread(2, domain.ThreadGroup, "team")
	if err := store.Create(ctx, foreign, foreignMembers); err != nil {
		t.Fatalf("Create other owner: %v", err)
	}
}
