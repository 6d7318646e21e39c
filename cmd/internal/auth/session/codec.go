package session

import "time"

// Payload is the identity envelope carried inside a session token.
//
// Tokens deliberately carry no expiration claim: session lifetime is owned by
// the Service and measured against the last-login stamp on the user record,
// not against anything inside the token.
type Payload struct {
	UserID   string
	IssuedAt time.Time
}

// TokenCodec encrypts and decrypts session token payloads.
//
// Decrypt must return ErrInvalidToken for anything that fails parsing,
// decryption, or signature verification, without leaking parser detail.
type TokenCodec interface {
	Encrypt(p Payload) (string, error)
	Decrypt(token string) (Payload, error)
}
