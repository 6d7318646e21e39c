package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"userauth/cmd/identity"
	sectoken "userauth/cmd/security/token"
)

// Service implements the high-level session operations.
//
// It issues tokens (stamping the user's last login), validates presented
// tokens against the server-authoritative user record, and ends sessions.
// At most one token is live per user: issuing a new one supersedes the old.
type Service struct {
	cfg   Config
	codec TokenCodec
	store Store
}

// NewService constructs a Service with the provided configuration, store, and codec.
func NewService(cfg Config, store Store, codec TokenCodec) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	return &Service{cfg: cfg, store: store, codec: codec}
}

// SessionTTL reports the configured fixed session lifetime.
func (s *Service) SessionTTL() time.Duration { return s.cfg.SessionTTL }

// Issue creates a new session for the user: it encrypts the user's ID into a
// token, stamps the record's last login with now, persists both, and returns
// the token. Any previously live token for the user is superseded.
//
// On success u reflects the persisted state (token and last login set).
func (s *Service) Issue(ctx context.Context, now time.Time, u *identity.User) (string, error) {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return "", ErrUnknownUser
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	token, err := s.codec.Encrypt(Payload{UserID: u.ID, IssuedAt: now})
	if err != nil {
		return "", err
	}

	// Token and last-login stamp change together; the stamp is the sole
	// basis for expiry.
	u.Token = &token
	u.LastLogin = &now

	if err := s.store.SaveUser(ctx, u); err != nil {
		return "", err
	}

	return token, nil
}

// Validate checks a presented token and returns the authenticated user.
//
// The checks run in a fixed order:
//  1. decrypt the token (ErrInvalidToken),
//  2. load the user it names (ErrUnknownUser),
//  3. compare against the record's live token (ErrTokenMismatch),
//  4. enforce the session lifetime against the last-login stamp
//     (ErrLoginExpired).
//
// The identity check runs before the expiry check: a stale or superseded
// token reports a mismatch even when it is also old. A session is expired
// only when strictly more than SessionTTL has elapsed since last login; a
// token presented exactly at the boundary is still valid. Expiry clears the
// record's token before the error is raised, so a retry reports a mismatch.
func (s *Service) Validate(ctx context.Context, token string, now time.Time) (identity.User, error) {
	token = strings.TrimSpace(token)
	// Basic sanity bounds to avoid pathological inputs.
	if token == "" || len(token) > 4096 {
		return identity.User{}, ErrInvalidToken
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	payload, err := s.codec.Decrypt(token)
	if err != nil {
		return identity.User{}, ErrInvalidToken
	}

	u, err := s.store.GetUserByID(ctx, payload.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, ErrUnknownUser
		}
		return identity.User{}, err
	}

	if u.Token == nil || !sectoken.Equal(*u.Token, token) {
		return identity.User{}, ErrTokenMismatch
	}

	// A live token without a last-login stamp is unaccountable; treat it
	// as expired rather than granting an unbounded session.
	if u.LastLogin == nil || now.Sub(*u.LastLogin) > s.cfg.SessionTTL {
		u.Token = nil
		if saveErr := s.store.SaveUser(ctx, &u); saveErr != nil {
			return identity.User{}, errors.Join(ErrLoginExpired, saveErr)
		}
		return identity.User{}, ErrLoginExpired
	}

	return u, nil
}

// End terminates the user's session: the live token is cleared and the
// record persisted. Ending an already logged-out session is a no-op save.
// The last-login stamp is kept as a historical record.
func (s *Service) End(ctx context.Context, u *identity.User) error {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return ErrUnknownUser
	}

	u.Token = nil
	return s.store.SaveUser(ctx, u)
}
