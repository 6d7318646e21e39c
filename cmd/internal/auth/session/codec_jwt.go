package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

type jwtHS256Codec struct {
	issuer string
	secret []byte
}

// NewJWTHS256Codec builds a TokenCodec based on HS256 JWTs.
//
// Tokens carry iss/iat plus the "uid" claim and no "exp": lifetime is
// enforced by the Service against the user record, so a token alone never
// proves a live session.
func NewJWTHS256Codec(cfg Config) (TokenCodec, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, ErrConfig
	}

	return &jwtHS256Codec{
		issuer: cfg.Issuer,
		secret: []byte(cfg.JWTSecret),
	}, nil
}

func (c *jwtHS256Codec) Encrypt(p Payload) (string, error) {
	iat := p.IssuedAt
	if iat.IsZero() {
		iat = time.Now().UTC()
	}

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.issuer,
			IssuedAt: jwt.NewNumericDate(iat),
		},
		UserID: p.UserID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *jwtHS256Codec) Decrypt(token string) (Payload, error) {
	var claims jwtClaims

	parsed, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil || !parsed.Valid {
		return Payload{}, ErrInvalidToken
	}

	if claims.UserID == "" || claims.IssuedAt == nil {
		return Payload{}, ErrInvalidToken
	}

	return Payload{UserID: claims.UserID, IssuedAt: claims.IssuedAt.Time}, nil
}
