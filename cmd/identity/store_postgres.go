package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"userauth/cmd/identity/ids"
)

// PostgresStore implements the credential store over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Errors are mapped to identity sentinel kinds where appropriate.
// - SaveUser is a plain last-write-wins UPDATE of the session fields; there is
//   no optimistic concurrency token. Concurrent validations of the same
//   expired session may both clear the token; the store serializes the
//   writes and the final state is identical either way.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the credential store (default "auth").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "auth",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// CreateUser creates a new user record with a hashed credential.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return User{}, pgInvalid(op, "email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return User{}, pgInvalid(op, "password is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	emailNorm := NormalizeEmail(email)
	name := strings.TrimSpace(in.Name)

	pwHash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	userID, err := ids.NewULID(now)
	if err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+users+` (
		     id, email, email_norm, name, password_hash, token, last_login, created_at
		   ) VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6)`,
		userID, email, emailNorm, name, pwHash, now,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		ID:           userID,
		Email:        email,
		EmailNorm:    emailNorm,
		Name:         name,
		PasswordHash: pwHash,
		CreatedAt:    now,
	}, nil
}

// GetUserByID loads a user record by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const op = "identity.GetUserByID"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, pgInvalid(op, "missing user_id")
	}

	return s.getUser(ctx, op, "id", userID)
}

// GetUserByEmail loads a user record by normalized email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, pgInvalid(op, "missing email")
	}

	return s.getUser(ctx, op, "email_norm", norm)
}

func (s *PostgresStore) getUser(ctx context.Context, op, column, value string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, email_norm, name, password_hash, token, last_login, created_at
		   FROM `+users+`
		  WHERE `+column+` = $1`,
		value,
	).Scan(
		&u.ID,
		&u.Email,
		&u.EmailNorm,
		&u.Name,
		&u.PasswordHash,
		&u.Token,
		&u.LastLogin,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}

	return u, nil
}

// SaveUser persists the mutable fields of a user record: session token,
// last-login timestamp and profile name.
func (s *PostgresStore) SaveUser(ctx context.Context, u *User) error {
	const op = "identity.SaveUser"

	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return pgInvalid(op, "missing user")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	users := pgIdent(s.schema, "users")

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+users+`
		    SET token = $2,
		        last_login = $3,
		        name = $4
		  WHERE id = $1`,
		u.ID, u.Token, u.LastLogin, u.Name,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

// ---- helpers ----

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch {
	case c == "uq_users_email_norm" || strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
