package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func pasetoTestConfig() Config {
	cfg := DefaultConfig()
	cfg.PasetoV4LocalKeyHex = paseto.NewV4SymmetricKey().ExportHex()
	return cfg
}

func jwtTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Codec = CodecJWT
	cfg.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestPasetoCodec_RoundTrip(t *testing.T) {
	codec, err := NewPasetoV4LocalCodec(pasetoTestConfig())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	iat := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, err := codec.Encrypt(Payload{UserID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", IssuedAt: iat})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.HasPrefix(tok, "v4.local.") {
		t.Fatalf("unexpected token format: %q", tok)
	}

	p, err := codec.Decrypt(tok)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if p.UserID != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Fatalf("uid mismatch: %q", p.UserID)
	}
	if !p.IssuedAt.Equal(iat) {
		t.Fatalf("iat mismatch: %v", p.IssuedAt)
	}
}

func TestPasetoCodec_TamperedToken(t *testing.T) {
	codec, err := NewPasetoV4LocalCodec(pasetoTestConfig())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	tok, err := codec.Encrypt(Payload{UserID: "u1", IssuedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Flip a character in the ciphertext body.
	b := []byte(tok)
	i := len(b) - 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}

	if _, err := codec.Decrypt(string(b)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasetoCodec_WrongKey(t *testing.T) {
	a, err := NewPasetoV4LocalCodec(pasetoTestConfig())
	if err != nil {
		t.Fatalf("codec a: %v", err)
	}
	b, err := NewPasetoV4LocalCodec(pasetoTestConfig())
	if err != nil {
		t.Fatalf("codec b: %v", err)
	}

	tok, err := a.Encrypt(Payload{UserID: "u1", IssuedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := b.Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasetoCodec_WrongIssuer(t *testing.T) {
	cfg := pasetoTestConfig()
	a, err := NewPasetoV4LocalCodec(cfg)
	if err != nil {
		t.Fatalf("codec a: %v", err)
	}

	cfg.Issuer = "someone-else"
	b, err := NewPasetoV4LocalCodec(cfg)
	if err != nil {
		t.Fatalf("codec b: %v", err)
	}

	tok, err := b.Encrypt(Payload{UserID: "u1", IssuedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := a.Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasetoCodec_BadKeyHex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PasetoV4LocalKeyHex = "not-hex"
	if _, err := NewPasetoV4LocalCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestJWTCodec_RoundTrip(t *testing.T) {
	codec, err := NewJWTHS256Codec(jwtTestConfig())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	iat := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, err := codec.Encrypt(Payload{UserID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", IssuedAt: iat})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	p, err := codec.Decrypt(tok)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if p.UserID != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Fatalf("uid mismatch: %q", p.UserID)
	}
	if !p.IssuedAt.Equal(iat) {
		t.Fatalf("iat mismatch: %v", p.IssuedAt)
	}
}

func TestJWTCodec_WrongSecret(t *testing.T) {
	a, err := NewJWTHS256Codec(jwtTestConfig())
	if err != nil {
		t.Fatalf("codec a: %v", err)
	}

	cfg := jwtTestConfig()
	cfg.JWTSecret = strings.Repeat("x", 32)
	b, err := NewJWTHS256Codec(cfg)
	if err != nil {
		t.Fatalf("codec b: %v", err)
	}

	tok, err := a.Encrypt(Payload{UserID: "u1", IssuedAt: time.Now().UTC().Add(-time.Minute)})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := b.Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTCodec_ShortSecretRefused(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Codec = CodecJWT
	cfg.JWTSecret = "too-short"
	if _, err := NewJWTHS256Codec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestJWTCodec_PasetoTokenRejected(t *testing.T) {
	jc, err := NewJWTHS256Codec(jwtTestConfig())
	if err != nil {
		t.Fatalf("jwt codec: %v", err)
	}
	pc, err := NewPasetoV4LocalCodec(pasetoTestConfig())
	if err != nil {
		t.Fatalf("paseto codec: %v", err)
	}

	tok, err := pc.Encrypt(Payload{UserID: "u1", IssuedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := jc.Decrypt(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
