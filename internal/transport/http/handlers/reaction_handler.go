package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/internal/transport/http/middleware"
)

type ReactionHandler struct {
	reactionService *service.ReactionService
}

func NewReactionHandler(reactionService *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionService: reactionService}
}

type reactInput struct {
	Emoji string `json:"emoji"`
}

// React sets or clears the caller's reaction; an empty emoji clears.
func (h *ReactionHandler) React(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	messageID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	var input reactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	summary, err := h.reactionService.React(r.Context(), me, messageID, input.Emoji)
	if err != nil {
		writeServiceError(w, "react", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
