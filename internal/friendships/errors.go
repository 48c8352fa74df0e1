package friendships

import "errors"

var (
	// ErrInvalidInput indicates a caller or target identifier was missing.
	ErrInvalidInput = errors.New("invalid friendship input")
	// ErrInvalidTarget indicates the target user is unknown to the user directory.
	ErrInvalidTarget = errors.New("target user does not exist")
	// ErrNotRequested indicates there is no inbound pending request from the counterpart.
	ErrNotRequested = errors.New("no pending friendship request from user")
	// ErrSelfRequest indicates a user attempted to befriend themselves.
	ErrSelfRequest = errors.New("cannot send a friendship request to yourself")
	// ErrAlreadyRequested indicates the caller already has a pending request to the target.
	ErrAlreadyRequested = errors.New("friendship request already pending")
	// ErrAlreadyFriends indicates the caller's record toward the target is already accepted.
	ErrAlreadyFriends = errors.New("users are already friends")
)

// IsClientError reports whether err was caused by the caller's input rather
// than by the store.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrNotRequested),
		errors.Is(err, ErrSelfRequest),
		errors.Is(err, ErrAlreadyRequested),
		errors.Is(err, ErrAlreadyFriends):
		return true
	default:
		return false
	}
}
