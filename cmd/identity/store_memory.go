package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"userauth/cmd/identity/ids"
)

// MemoryStore is an in-memory credential store guarded by a mutex.
// It backs tests and DB-less deployments; state is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string // email_norm -> id
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateUser creates a new user record with a hashed credential.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	u := User{
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: pwHash,
		CreatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.EmailNorm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}

	u.ID, err = ids.NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.byID[u.ID] = u
	s.byEmail[u.EmailNorm] = u.ID
	return u, nil
}

// GetUserByID loads a user record by ID.
func (s *MemoryStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing user_id"}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[userID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return cloneUser(u), nil
}

// GetUserByEmail loads a user record by normalized email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing email"}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[norm]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return cloneUser(s.byID[id]), nil
}

// SaveUser persists the mutable session fields and the profile name.
func (s *MemoryStore) SaveUser(ctx context.Context, u *User) error {
	const op = "identity.SaveUser"

	if err := ctx.Err(); err != nil {
		return err
	}
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing user"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[u.ID]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}

	cur.Token = clonePtr(u.Token)
	cur.LastLogin = clonePtr(u.LastLogin)
	cur.Name = strings.TrimSpace(u.Name)
	s.byID[u.ID] = cur
	return nil
}

// cloneUser returns a defensive copy so callers cannot mutate stored state
// through the pointer fields.
func cloneUser(u User) User {
	u.Token = clonePtr(u.Token)
	u.LastLogin = clonePtr(u.LastLogin)
	return u
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
