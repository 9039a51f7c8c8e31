package service

import "errors"

// Sentinel errors for the messaging core. Handlers map these onto the
// HTTP surface: membership/entitlement failures to 401/403, missing
// rows to 404, bad input to 400 and state conflicts to 409.
var (
	ErrModuleDenied = errors.New("no access to the chat module")

	ErrThreadNotFound  = errors.New("thread not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrReplyNotFound   = errors.New("reply target not found in this thread")
	ErrUserNotFound    = errors.New("user not found")

	ErrNotThreadMember  = errors.New("you are not a member of this thread")
	ErrNotThreadOwner   = errors.New("only the thread owner can perform this action")
	ErrNotMessageSender = errors.New("only the message sender can perform this action")

	ErrCannotDMSelf     = errors.New("cannot start a dm with yourself")
	ErrNameRequired     = errors.New("a name is required for this thread kind")
	ErrNameTaken        = errors.New("you already have a thread with this name")
	ErrEmptyBody        = errors.New("message body must not be empty")
	ErrEmojiNotAllowed  = errors.New("emoji is not in the allowed set")
	ErrKindMismatch     = errors.New("operation does not apply to this thread kind")
	ErrNotEnoughMembers = errors.New("a group needs at least two other members")

	ErrOwnerImmutable = errors.New("the owner membership cannot be removed")
	ErrNoOwnerMessage = errors.New("broadcast has no owner message to reply to")
)
