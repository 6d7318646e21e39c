package session

import (
	"context"

	"userauth/cmd/identity"
)

// Store is the slice of the credential store the session policy needs:
// loading a user by the ID recovered from a token, and persisting the
// session fields it mutates. identity.Store satisfies it.
type Store interface {
	GetUserByID(ctx context.Context, userID string) (identity.User, error)
	SaveUser(ctx context.Context, u *identity.User) error
}
