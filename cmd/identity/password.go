package identity

import (
	"errors"

	"userauth/cmd/security/password"
)

// HashPassword returns a PHC-style Argon2id hash string.
//
// Policy and cost parameters come from cmd/security/password (env +
// defaults); identity enforces a baseline minimum length of 8 and honors
// stricter env policy.
func HashPassword(passwordPlain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Treat invalid env as an operational error, not a weak fallback.
		return "", err
	}
	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}

	enc, err := cfg.Hash(passwordPlain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort),
			errors.Is(err, password.ErrPasswordTooLong),
			errors.Is(err, password.ErrWeakPassword):
			return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: err.Error()}
		default:
			return "", err
		}
	}
	return enc, nil
}

// VerifyPassword checks a password against a PHC Argon2id hash.
// Strict PHC parsing; verification refuses hashes with parameters wildly
// above the configured maxima (anti-DoS).
func VerifyPassword(passwordPlain string, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	ok, err := cfg.Verify(encodedPHC, passwordPlain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, OpError{Op: "identity.VerifyPassword", Kind: ErrInvalidInput, Msg: "invalid argon2id hash format"}
		}
		return false, err
	}
	return ok, nil
}
