package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/tokgate/internal/core/domain"
)

// Codec decodes a token string into its claims view.
type Codec interface {
	Decode(token string) (*domain.DecodedToken, error)
}

// JWTCodec decodes JWT claims without verifying the signature.
type JWTCodec struct {
	parser *jwt.Parser
}

// NewJWTCodec creates a JWT codec.
func NewJWTCodec() *JWTCodec {
	return &JWTCodec{parser: jwt.NewParser()}
}

// Decode parses the payload of a JWT and extracts the exp claim.
func (c *JWTCodec) Decode(token string) (*domain.DecodedToken, error) {
	if token == "" {
		return nil, domain.ErrTokenMalformed.WithDetails("empty token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(token, claims); err != nil {
		return nil, domain.ErrTokenMalformed.WithCause(err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, domain.ErrTokenMalformed.WithCause(err)
	}
	if exp == nil {
		return nil, domain.ErrTokenMalformed.WithCause(domain.ErrTokenMissingExpiry)
	}

	decoded := &domain.DecodedToken{
		ExpiresAt: exp.Unix(),
		Claims:    make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		decoded.Claims[k] = v
	}
	return decoded, nil
}

var defaultCodec = NewJWTCodec()

// Decode decodes a token with the default JWT codec.
func Decode(token string) (*domain.DecodedToken, error) {
	return defaultCodec.Decode(token)
}
