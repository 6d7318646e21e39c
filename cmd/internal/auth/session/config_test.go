package session

import (
	"strings"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func TestLoadConfigFromEnv_MissingPasetoKey(t *testing.T) {
	t.Setenv("AUTH_SESSION_CODEC", "")
	t.Setenv("AUTH_PASETO_V4_LOCAL_KEY_HEX", "")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig on missing key, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidTTL(t *testing.T) {
	t.Setenv("AUTH_PASETO_V4_LOCAL_KEY_HEX", paseto.NewV4SymmetricKey().ExportHex())
	t.Setenv("AUTH_SESSION_TTL", "-5m")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for negative duration, got %v", err)
	}
}

func TestLoadConfigFromEnv_UnknownCodec(t *testing.T) {
	t.Setenv("AUTH_PASETO_V4_LOCAL_KEY_HEX", paseto.NewV4SymmetricKey().ExportHex())
	t.Setenv("AUTH_SESSION_CODEC", "rot13")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for unknown codec, got %v", err)
	}
}

func TestLoadConfigFromEnv_JWTShortSecret(t *testing.T) {
	t.Setenv("AUTH_SESSION_CODEC", "jwt")
	t.Setenv("AUTH_JWT_HS256_SECRET", "short")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for short jwt secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	key := paseto.NewV4SymmetricKey().ExportHex()
	t.Setenv("AUTH_PASETO_V4_LOCAL_KEY_HEX", key)
	t.Setenv("AUTH_SESSION_ISSUER", "userauth-test")
	t.Setenv("AUTH_SESSION_TTL", "30m")
	t.Setenv("AUTH_SESSION_CODEC", "paseto")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Issuer != "userauth-test" {
		t.Fatalf("issuer mismatch: %q", cfg.Issuer)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("session ttl mismatch: %v", cfg.SessionTTL)
	}
	if cfg.Codec != CodecPaseto {
		t.Fatalf("codec mismatch: %q", cfg.Codec)
	}
	if cfg.PasetoV4LocalKeyHex != key {
		t.Fatalf("key mismatch")
	}

	if _, err := NewCodec(cfg); err != nil {
		t.Fatalf("new codec: %v", err)
	}
}

func TestLoadConfigFromEnv_JWTValid(t *testing.T) {
	t.Setenv("AUTH_SESSION_CODEC", "JWT") // selector is case-insensitive
	t.Setenv("AUTH_JWT_HS256_SECRET", strings.Repeat("s", 32))

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Codec != CodecJWT {
		t.Fatalf("codec mismatch: %q", cfg.Codec)
	}
	if _, err := NewCodec(cfg); err != nil {
		t.Fatalf("new codec: %v", err)
	}
}

func TestDefaultConfig_OneHourLifetime(t *testing.T) {
	if got := DefaultConfig().SessionTTL; got != time.Hour {
		t.Fatalf("default session ttl: %v", got)
	}
}
