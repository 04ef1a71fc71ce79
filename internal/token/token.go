package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

// DefaultTTL is used when Issue is called with a non-positive TTL.
const DefaultTTL = time.Hour

// Codec signs and verifies bearer tokens carrying a subject identity.
// The secret and algorithm are fixed at construction time.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

func NewCodec(secret, algorithm string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}

	return &Codec{secret: []byte(secret), method: method}, nil
}

func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}

	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Verify checks the signature and expiry and returns the embedded subject.
// Every failure mode collapses into ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (string, time.Time, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", time.Time{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, ErrInvalidToken
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return "", time.Time{}, ErrInvalidToken
	}

	return subject, expiry.Time, nil
}
