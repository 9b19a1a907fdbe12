// ABOUTME: Bearer token issuance for authenticated principals
// ABOUTME: Issues HS256 signed JWTs; consumers treat the token as opaque

package directory

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints opaque bearer tokens for principals. The rest of the
// system never parses the token; it is only stored and compared for presence.
type TokenIssuer interface {
	Issue(principalID string, ttl time.Duration) (string, error)
}

// JWTIssuer implements TokenIssuer using HS256 signed JWTs.
type JWTIssuer struct {
	secret []byte
}

// NewJWTIssuer creates a token issuer with the given signing secret.
func NewJWTIssuer(secret []byte) *JWTIssuer {
	return &JWTIssuer{secret: secret}
}

// Issue creates a signed token for the given principal ID. A zero ttl issues
// a token without an expiration claim (session lifetime is then bounded by
// the storage tier holding it, not by the token itself).
func (i *JWTIssuer) Issue(principalID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": principalID,
		"iat": now.Unix(),
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
