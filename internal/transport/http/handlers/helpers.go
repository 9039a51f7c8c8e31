package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/rosterbase/chat/internal/service"
	"github.com/rosterbase/chat/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// writeServiceError maps the service error taxonomy onto HTTP:
// membership/entitlement to 403, missing rows to 404, bad input to
// 400, state conflicts to 409. Anything unmapped is logged and hidden
// behind a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrModuleDenied),
		errors.Is(err, service.ErrNotThreadMember),
		errors.Is(err, service.ErrNotThreadOwner),
		errors.Is(err, service.ErrNotMessageSender):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())

	case errors.Is(err, service.ErrThreadNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrReplyNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())

	case errors.Is(err, service.ErrCannotDMSelf),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrNameTaken),
		errors.Is(err, service.ErrEmptyBody),
		errors.Is(err, service.ErrEmojiNotAllowed),
		errors.Is(err, service.ErrKindMismatch),
		errors.Is(err, service.ErrNotEnoughMembers):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())

	case errors.Is(err, service.ErrOwnerImmutable),
		errors.Is(err, service.ErrNoOwnerMessage):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())

	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
