package session

import (
	"os"
	"strings"
	"time"
)

// Codec selectors accepted by Config.Codec.
const (
	CodecPaseto = "paseto"
	CodecJWT    = "jwt"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls the session lifetime, the token codec, and the codec keys.
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of session tokens.
	Issuer string

	// SessionTTL is the fixed session lifetime, measured from the
	// last-login stamp on the user record. A session older than this is
	// expired and cleared on validation.
	SessionTTL time.Duration

	// Codec selects the token codec: CodecPaseto or CodecJWT.
	Codec string

	// PasetoV4LocalKeyHex is the hex-encoded 32-byte symmetric key used to
	// encrypt PASETO v4.local session tokens. Required when Codec is
	// CodecPaseto.
	PasetoV4LocalKeyHex string

	// JWTSecret is the HS256 signing secret. Required when Codec is
	// CodecJWT; must be at least 32 bytes.
	JWTSecret string
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:     "userauth",
		SessionTTL: time.Hour,
		Codec:      CodecPaseto,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required (depending on codec):
//   - AUTH_PASETO_V4_LOCAL_KEY_HEX (codec "paseto", the default)
//   - AUTH_JWT_HS256_SECRET        (codec "jwt")
//
// Optional:
//   - AUTH_SESSION_ISSUER
//   - AUTH_SESSION_TTL   (valid Go duration string, > 0)
//   - AUTH_SESSION_CODEC ("paseto" or "jwt")
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("AUTH_SESSION_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("AUTH_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("AUTH_SESSION_CODEC"); v != "" {
		cfg.Codec = strings.ToLower(strings.TrimSpace(v))
	}

	cfg.PasetoV4LocalKeyHex = os.Getenv("AUTH_PASETO_V4_LOCAL_KEY_HEX")
	cfg.JWTSecret = os.Getenv("AUTH_JWT_HS256_SECRET")

	switch cfg.Codec {
	case CodecPaseto:
		if cfg.PasetoV4LocalKeyHex == "" {
			return Config{}, ErrConfig
		}
	case CodecJWT:
		if len(cfg.JWTSecret) < 32 {
			return Config{}, ErrConfig
		}
	default:
		return Config{}, ErrConfig
	}

	return cfg, nil
}

// NewCodec builds the token codec selected by cfg.
func NewCodec(cfg Config) (TokenCodec, error) {
	switch cfg.Codec {
	case CodecPaseto:
		return NewPasetoV4LocalCodec(cfg)
	case CodecJWT:
		return NewJWTHS256Codec(cfg)
	default:
		return nil, ErrConfig
	}
}
