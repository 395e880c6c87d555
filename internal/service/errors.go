package service

import "errors"

// Error taxonomy shared by all services. Handlers map these to HTTP
// statuses and flash messages; anything else propagates to the generic
// 500 boundary.
var (
	// ErrNotFound means a referenced user or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a uniqueness constraint was violated (username,
	// email, follow pair, like pair). The transaction is fully rolled
	// back before this is returned.
	ErrDuplicate = errors.New("already exists")

	// ErrForbidden means the actor is authenticated but not allowed to
	// perform the action (deleting someone else's message, liking one's
	// own). Deliberately distinct from ErrNotFound.
	ErrForbidden = errors.New("access unauthorized")

	// ErrUnauthenticated means the action requires a logged-in user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidCredentials covers both unknown username and wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation means malformed input (empty field, over-long text,
	// self-follow).
	ErrValidation = errors.New("invalid input")

	// ErrNoSession means the presented session token is unknown or
	// expired. The middleware starts a fresh anonymous session on it.
	ErrNoSession = errors.New("no such session")
)
