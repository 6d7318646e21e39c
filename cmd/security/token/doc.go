// Package token provides small helpers for handling session tokens as
// secrets: constant-time equality and log-safe fingerprints.
//
// Session tokens are bearer credentials. They must never appear in logs
// or audit rows in plaintext; use Fingerprint for diagnostics.
package token
