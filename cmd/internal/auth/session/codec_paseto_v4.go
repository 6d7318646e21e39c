package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

type pasetoV4LocalCodec struct {
	issuer string
	key    paseto.V4SymmetricKey
}

// NewPasetoV4LocalCodec builds a TokenCodec based on PASETO v4.local.
//
// It uses a 32-byte symmetric key (XChaCha20 + Blake2b under the hood) and
// enforces the issuer claim on decryption. Expiration is intentionally not a
// token claim, so the parser is built without the default expiry rule.
func NewPasetoV4LocalCodec(cfg Config) (TokenCodec, error) {
	key, err := paseto.V4SymmetricKeyFromHex(cfg.PasetoV4LocalKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4LocalCodec{
		issuer: cfg.Issuer,
		key:    key,
	}, nil
}

func (c *pasetoV4LocalCodec) Encrypt(p Payload) (string, error) {
	iat := p.IssuedAt
	if iat.IsZero() {
		iat = time.Now().UTC()
	}

	tok := paseto.NewToken()
	tok.SetIssuer(c.issuer)
	tok.SetIssuedAt(iat)

	// Minimal, explicit claims.
	if err := tok.Set("uid", p.UserID); err != nil {
		return "", err
	}

	return tok.V4Encrypt(c.key, nil), nil
}

func (c *pasetoV4LocalCodec) Decrypt(token string) (Payload, error) {
	// Build a fresh parser per call to avoid accumulating rules across decrypts.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(c.issuer))

	parsed, err := p.ParseV4Local(c.key, token, nil)
	if err != nil {
		return Payload{}, ErrInvalidToken
	}

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return Payload{}, ErrInvalidToken
	}

	iat, err := parsed.GetIssuedAt()
	if err != nil {
		return Payload{}, ErrInvalidToken
	}

	return Payload{UserID: uid, IssuedAt: iat}, nil
}
