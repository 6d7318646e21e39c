package session

import "errors"

var (
	// ErrInvalidToken is returned when a token fails decryption or parsing.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnknownUser is returned when a decrypted token references a user
	// that no longer exists in the store.
	ErrUnknownUser = errors.New("unknown user")

	// ErrTokenMismatch is returned when a structurally valid token does not
	// equal the token stored on the user record (stale, superseded, or the
	// user is logged out).
	ErrTokenMismatch = errors.New("tokens dont match")

	// ErrLoginExpired is returned when the session lifetime has elapsed.
	// The stored token is cleared before this error is raised.
	ErrLoginExpired = errors.New("login expired")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
