package domain

import (
	"fmt"
	"strings"
)

// User is a row from the shared user directory. The chat service only
// reads it to resolve display labels; identity and account management
// live in the surrounding application.
type User struct {
	ID          int64   `json:"user_id"`
	Handle      *string `json:"handle,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       string  `json:"-"`
	Admin       bool    `json:"-"`
}

// Label returns a display label for the user without exposing an email
// address. Falls back to "User <id>".
func (u *User) Label() string {
	for _, candidate := range []*string{u.Handle, u.DisplayName} {
		if candidate == nil {
			continue
		}
		text := strings.TrimSpace(*candidate)
		if text != "" && !strings.Contains(text, "@") {
			return text
		}
	}
	return fmt.Sprintf("User %d", u.ID)
}
