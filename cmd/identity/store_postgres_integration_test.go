package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"userauth/cmd/identity/ids"
)

// Integration tests are opt-in and require AUTH_DATABASE_URL.
// In non-CI runs, unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresStore_CreateUser_ConflictEmail_CaseInsensitive(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyUsersSchema(t, pool, schema)

	s := mustNewCredentialStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := s.CreateUser(ctx, CreateUserInput{
		Email:    "User@Example.com",
		Password: "very-strong-password-1",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user 1: %v", err)
	}

	// Same email (case-insensitive) should conflict.
	_, err = s.CreateUser(ctx, CreateUserInput{
		Email:    "user@example.COM",
		Password: "very-strong-password-2",
		Now:      time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("expected conflict, got nil")
	}
	if !IsConflict(err) {
		t.Fatalf("expected conflict error, got: %v", err)
	}
}

func TestPostgresStore_GetUser_ByIDAndEmail(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyUsersSchema(t, pool, schema)

	s := mustNewCredentialStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	email := "lookup-" + strings.ToLower(mustNewULIDLike(t)) + "@example.com"
	created, err := s.CreateUser(ctx, CreateUserInput{
		Email:    email,
		Name:     "Lookup User",
		Password: "very-strong-password-3",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if len(created.ID) != 26 {
		t.Fatalf("expected 26-char ULID, got %q", created.ID)
	}

	byID, err := s.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.EmailNorm != NormalizeEmail(email) {
		t.Fatalf("email_norm mismatch: %q", byID.EmailNorm)
	}
	if byID.Token != nil || byID.LastLogin != nil {
		t.Fatalf("new user must not be logged in")
	}

	byEmail, err := s.GetUserByEmail(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("lookup returned wrong user")
	}

	if _, err := s.GetUserByID(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresStore_SaveUser_SessionRoundTrip(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyUsersSchema(t, pool, schema)

	s := mustNewCredentialStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	email := "save-" + strings.ToLower(mustNewULIDLike(t)) + "@example.com"
	u, err := s.CreateUser(ctx, CreateUserInput{
		Email:    email,
		Password: "very-strong-password-4",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	tok := "opaque-session-token"
	at := time.Now().UTC().Truncate(time.Microsecond)
	u.Token = &tok
	u.LastLogin = &at
	if err := s.SaveUser(ctx, &u); err != nil {
		t.Fatalf("save user: %v", err)
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !got.LoggedIn() || *got.Token != tok {
		t.Fatalf("token not persisted")
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Fatalf("last_login mismatch: got %v want %v", got.LastLogin, at)
	}

	// Logout clears both session fields.
	got.Token = nil
	got.LastLogin = nil
	if err := s.SaveUser(ctx, &got); err != nil {
		t.Fatalf("save user (logout): %v", err)
	}
	final, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if final.LoggedIn() || final.LastLogin != nil {
		t.Fatalf("expected logged-out state")
	}

	// Saving a nonexistent user reports not found.
	ghost := User{ID: mustNewULIDLike(t)}
	if err := s.SaveUser(ctx, &ghost); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func mustNewCredentialStore(t *testing.T, pool *pgxpool.Pool, schema string) *PostgresStore {
	t.Helper()
	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("AUTH_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: AUTH_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse AUTH_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	// Validate acquire quickly (fast fail).
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (AUTH_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func mustCreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "auth_it_" + strings.ToLower(mustNewULIDLike(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+pgxIdent1(schema)); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return schema
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgxIdent1(schema)+` CASCADE`)
}

func mustApplyUsersSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	users := pgIdent(schema, "users")

	schemaSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  email_norm TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  token TEXT NULL,
  last_login TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT chk_users_id_ulid_len CHECK (char_length(id) = 26),
  CONSTRAINT uq_users_email_norm UNIQUE (email_norm)
);
`, users)

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply users schema: %v", err)
	}
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host") {
		return true
	}
	return false
}

func mustNewULIDLike(t *testing.T) string {
	t.Helper()

	id, err := ids.NewULID(time.Now().UTC())
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	return id
}

func pgxIdent1(ident string) string {
	// pgx.Identifier safely quotes identifiers, preventing SQL injection in dynamic DDL.
	return pgx.Identifier{ident}.Sanitize()
}
