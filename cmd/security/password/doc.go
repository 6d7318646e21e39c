// Package password implements the password-hashing collaborator used by the
// authentication service.
//
// It hashes with Argon2id into a PHC-style encoded string and includes:
// - configurable Argon2id parameters (env overridable)
// - password policy validation
// - strict hash decoding with anti-DoS bounds during verification
//
// Hash strings are treated as untrusted input during Verify and are
// validated accordingly; verification refuses hashes whose parameters
// exceed reasonable bounds.
package password
