package domain

// Identity is the caller as established by the transport layer. Core
// services receive it explicitly and never inspect the request.
type Identity struct {
	UserID int64 `json:"user_id"`
	Admin  bool  `json:"admin"`
}
