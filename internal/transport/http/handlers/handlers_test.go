package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/notify"
	"github.com/rosterbase/chat/internal/repository/memory"
	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/internal/transport/http/middleware"
)

const testSecret = "test-secret"

// newTestServer wires the full protected route table over an in-memory
// store, the same shape main assembles in production.
func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.EnableModule(service.ModuleKeyChat)
	for id, name := range map[int64]string{1: "Alice", 2: "Bob", 3: "Carol"} {
		n := name
		store.AddUser(domain.User{ID: id, DisplayName: &n})
		store.Grant(id, service.ModuleKeyChat)
	}

	broker := notify.NewBroker()
	threadService := service.NewThreadService(store.Threads(), store.Messages(), store.Reactions(), store.Users())
	messageService := service.NewMessageService(store.Threads(), store.Messages())
	messageService.SetBroker(broker)
	reactionService := service.NewReactionService(store.Threads(), store.Messages(), store.Reactions())
	pollService := service.NewPollService(
		store.Threads(), store.Messages(), store.Reactions(), store.Users(),
		broker, 10*time.Millisecond, 200*time.Millisecond,
	)
	accessService := service.NewAccessService(store.Access())

	threadHandler := NewThreadHandler(threadService)
	messageHandler := NewMessageHandler(messageService)
	reactionHandler := NewReactionHandler(reactionService)
	pollHandler := NewPollHandler(pollService)

	auth := middleware.Auth(testSecret)
	gate := middleware.Module(accessService, service.ModuleKeyChat)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(gate(h))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/threads", protected(threadHandler.List))
	mux.Handle("POST /api/v1/threads", protected(threadHandler.Create))
	mux.Handle("GET /api/v1/threads/{id}", protected(threadHandler.Get))
	mux.Handle("DELETE /api/v1/threads/{id}", protected(threadHandler.Delete))
	mux.Handle("POST /api/v1/threads/{id}/members", protected(threadHandler.AddMembers))
	mux.Handle("DELETE /api/v1/threads/{id}/members/{uid}", protected(threadHandler.RemoveMember))
	mux.Handle("POST /api/v1/threads/{id}/subscribe", protected(threadHandler.Subscribe))
	mux.Handle("POST /api/v1/threads/{id}/messages", protected(messageHandler.Send))
	mux.Handle("GET /api/v1/threads/{id}/poll", protected(pollHandler.Poll))
	mux.Handle("PATCH /api/v1/messages/{id}", protected(messageHandler.Edit))
	mux.Handle("DELETE /api/v1/messages/{id}", protected(messageHandler.Delete))
	mux.Handle("POST /api/v1/messages/{id}/react", protected(reactionHandler.React))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, userID int64, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestThreadMessageFlow(t *testing.T) {
	server, _ := newTestServer(t)

	resp, created := doJSON(t, server, http.MethodPost, "/api/v1/threads", 1, map[string]any{
		"kind": "group", "name": "team", "member_ids": []int64{2, 3},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create thread: expected 201, got %d (%v)", resp.StatusCode, created)
	}
	threadID := int64(created["thread_id"].(float64))

	resp, msg := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/messages", threadID), 1, map[string]any{
		"body": "hello team",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d (%v)", resp.StatusCode, msg)
	}
	messageID := int64(msg["message_id"].(float64))

	resp, view := doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/threads/%d", threadID), 2, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get thread: expected 200, got %d", resp.StatusCode)
	}
	messages := view["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	resp, summary := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d/react", messageID), 2, map[string]any{
		"emoji": "👍",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("react: expected 200, got %d (%v)", resp.StatusCode, summary)
	}
	counts := summary["counts"].(map[string]any)
	if counts["👍"].(float64) != 1 {
		t.Fatalf("unexpected reaction counts: %v", counts)
	}

	resp, poll := doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/v1/threads/%d/poll?since=0", threadID), 3, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("poll: expected 200, got %d", resp.StatusCode)
	}
	if got := poll["messages"].([]any); len(got) != 1 {
		t.Fatalf("poll: expected 1 message, got %d", len(got))
	}
}

func TestErrorStatusMapping(t *testing.T) {
	server, store := newTestServer(t)

	_, created := doJSON(t, server, http.MethodPost, "/api/v1/threads", 1, map[string]any{
		"kind": "group", "name": "team", "member_ids": []int64{2, 3},
	})
	threadID := int64(created["thread_id"].(float64))

	_, msg := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/messages", threadID), 1, map[string]any{
		"body": "hello",
	})
	messageID := int64(msg["message_id"].(float64))

	// Outsider with module access but no membership.
	outsider := "Dave"
	store.AddUser(domain.User{ID: 4, DisplayName: &outsider})
	store.Grant(4, service.ModuleKeyChat)

	tests := []struct {
		name   string
		method string
		path   string
		userID int64
		body   any
		want   int
	}{
		{"unknown thread", http.MethodGet, "/api/v1/threads/999", 1, nil, http.StatusNotFound},
		{"non-member read", http.MethodGet, fmt.Sprintf("/api/v1/threads/%d", threadID), 4, nil, http.StatusForbidden},
		{"duplicate name", http.MethodPost, "/api/v1/threads", 1,
			map[string]any{"kind": "group", "name": "TEAM", "member_ids": []int64{2, 3}}, http.StatusBadRequest},
		{"bad kind", http.MethodPost, "/api/v1/threads", 1,
			map[string]any{"kind": "channel", "name": "x", "member_ids": []int64{2}}, http.StatusBadRequest},
		{"unlisted emoji", http.MethodPost, fmt.Sprintf("/api/v1/messages/%d/react", messageID), 2,
			map[string]any{"emoji": "🔥"}, http.StatusBadRequest},
		{"edit by non-sender", http.MethodPatch, fmt.Sprintf("/api/v1/messages/%d", messageID), 2,
			map[string]any{"body": "hijack"}, http.StatusForbidden},
		{"subscribe to group", http.MethodPost, fmt.Sprintf("/api/v1/threads/%d/subscribe", threadID), 2, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, decoded := doJSON(t, server, tt.method, tt.path, tt.userID, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d (%v)", tt.want, resp.StatusCode, decoded)
			}
		})
	}
}

func TestModuleGateBlocksUngrantedUsers(t *testing.T) {
	server, store := newTestServer(t)

	nobody := "Mallory"
	store.AddUser(domain.User{ID: 9, DisplayName: &nobody})

	resp, _ := doJSON(t, server, http.MethodGet, "/api/v1/threads", 9, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
