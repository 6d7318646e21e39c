// Package session implements the single-session login policy.
//
// Each user record holds at most one live token. Issuing a token stamps the
// record's last-login time; validation decrypts the token, checks it against
// the record, and enforces a fixed session lifetime measured from that stamp.
// Expired sessions are cleared from the record during validation.
//
// Tokens are encrypted PASETO v4.local by default; an HS256 JWT codec is
// available via configuration. Transport (HTTP) integration is intentionally
// out of scope here.
package session
