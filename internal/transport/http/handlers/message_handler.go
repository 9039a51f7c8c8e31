package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/internal/transport/http/middleware"
	"github.com/rosterbase/chat/pkg/validator"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	threadID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid thread ID")
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMessageBody(input.Body); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messageService.Send(r.Context(), me, threadID, input)
	if err != nil {
		writeServiceError(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	messageID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	var input service.EditMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.messageService.Edit(r.Context(), me, messageID, input)
	if err != nil {
		writeServiceError(w, "edit message", err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	me := middleware.GetIdentity(r.Context())
	messageID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.messageService.Delete(r.Context(), me, messageID); err != nil {
		writeServiceError(w, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
