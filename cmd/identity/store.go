package identity

import (
	"context"
	"strings"
	"time"
)

// User is the canonical security principal. Session state lives directly on
// the record: exactly one token may be live per user at a time.
type User struct {
	ID           string
	Email        string
	EmailNorm    string
	Name         string
	PasswordHash string

	// Token is the currently valid session token; nil means logged out.
	Token *string

	// LastLogin is stamped whenever a session token is issued. The session
	// policy requires Token and LastLogin to change together on issuance.
	LastLogin *time.Time

	CreatedAt time.Time
}

// LoggedIn reports whether the record currently holds a live session token.
func (u User) LoggedIn() bool { return u.Token != nil }

// CreateUserInput describes a registration request.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Now      time.Time
}

// Store is the credential-store persistence boundary.
//
// SaveUser persists the mutable session fields (token, last login) and the
// profile name; identity fields (id, email, password hash, created_at) are
// immutable after creation.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	SaveUser(ctx context.Context, u *User) error
}

// NormalizeEmail performs case-insensitive canonicalization.
// Note: for now we only trim + lower-case. Additional rules (unicode
// confusables) can be added later behind a versioned policy.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
