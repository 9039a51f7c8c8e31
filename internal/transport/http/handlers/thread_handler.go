package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/internal/transport/http/middleware"
	"github.com/rosterbase/chat/pkg/validator"
)

type ThreadHandler struct {
	threadService *service.ThreadService
}

func NewThreadHandler(threadService *service.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

type createThreadInput struct {
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids"`
}

type addMembersInput struct {
	UserIDs []int64 `json:"user_ids"`
}

func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())

	summaries, err := h.threadService.ListThreads(r.Context(), me)
	if err != nil {
		writeServiceError(w, "list threads", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"threads": summaries})
}

func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())

	var input createThreadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateCreateThread(input.Kind, input.Name, input.MemberIDs); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	switch input.Kind {
	case "dm":
		thread, err := h.threadService.CreateDM(r.Context(), me, input.MemberIDs[0])
		if err != nil {
			writeServiceError(w, "create dm", err)
			return
		}
		// Existing dm threads are returned as-is, never duplicated.
		writeJSON(w, http.StatusOK, thread)
	case "group":
		thread, err := h.threadService.CreateGroup(r.Context(), me, input.Name, input.MemberIDs)
		if err != nil {
			writeServiceError(w, "create group", err)
			return
		}
		writeJSON(w, http.StatusCreated, thread)
	case "broadcast":
		thread, err := h.threadService.CreateBroadcast(r.Context(), me, input.Name)
		if err != nil {
			writeServiceError(w, "create broadcast", err)
			return
		}
		writeJSON(w, http.StatusCreated, thread)
	}
}

func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	view, err := h.threadService.GetThread(r.Context(), me, threadID)
	if err != nil {
		writeServiceError(w, "get thread", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ThreadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	if err := h.threadService.DeleteThread(r.Context(), me, threadID); err != nil {
		writeServiceError(w, "delete thread", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ThreadHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	var input addMembersInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if len(input.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "user_ids is required")
		return
	}

	if err := h.threadService.AddMembers(r.Context(), me, threadID, input.UserIDs); err != nil {
		writeServiceError(w, "add members", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ThreadHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}
	userID, ok := pathID(r, "uid")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	if err := h.threadService.RemoveMember(r.Context(), me, threadID, userID); err != nil {
		writeServiceError(w, "remove member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ThreadHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	if err := h.threadService.Subscribe(r.Context(), me, threadID); err != nil {
		writeServiceError(w, "subscribe", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ThreadHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	if err := h.threadService.Unsubscribe(r.Context(), me, threadID); err != nil {
		writeServiceError(w, "unsubscribe", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
