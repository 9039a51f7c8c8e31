package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/rosterbase/chat/internal/service"
)

// Module enforces module entitlement once per request, before any
// handler touches data. Runs after Auth.
func Module(gate *service.AccessService, moduleKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r.Context())
			if err := gate.Require(r.Context(), id, moduleKey); err != nil {
				if errors.Is(err, service.ErrModuleDenied) {
					http.Error(w, `{"error":{"code":"MODULE_DENIED","message":"You do not have access to this module"}}`, http.StatusForbidden)
					return
				}
				log.Printf("ERROR module gate: %v", err)
				http.Error(w, `{"error":{"code":"INTERNAL","message":"Something went wrong"}}`, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
