package handlers

import (
	"net/http"
	"strconv"

	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/internal/transport/http/middleware"
)

type PollHandler struct {
	pollService *service.PollService
}

func NewPollHandler(pollService *service.PollService) *PollHandler {
	return &PollHandler{pollService: pollService}
}

// Poll blocks until messages newer than ?since= become visible or the
// server-side deadline passes. An empty messages array tells the client
// to re-issue the call.
func (h *PollHandler) Poll(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	var sinceID int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "since must be a non-negative integer")
			return
		}
		sinceID = parsed
	}

	middleware.PollsInFlight.Inc()
	defer middleware.PollsInFlight.Dec()

	messages, err := h.pollService.Poll(r.Context(), me, threadID, sinceID)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; nobody is reading the response.
			return
		}
		writeServiceError(w, "poll", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
