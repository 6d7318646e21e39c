// Package identity implements the credential store for the authentication
// service: user records, password hashing, and the persistence boundary
// used by the session policy and the HTTP layer.
//
// This package is intentionally dependency-light and security-first.
package identity
