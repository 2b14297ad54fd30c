// Package auth authenticates connection attempts with a bearer credential.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nfrund/chatgate/internal/domain"
)

// Claims is the payload of a chat credential. The subject is the user id;
// older credentials carry it in the "id" claim instead.
type Claims struct {
	LegacyID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// userID returns the subject the credential asserts.
func (c *Claims) userID() domain.UserID {
	if c.Subject != "" {
		return domain.UserID(c.Subject)
	}
	return domain.UserID(c.LegacyID)
}

// NewToken signs an HS256 credential for userID. A zero ttl produces a token
// without expiry and a negative one an already expired token.
func NewToken(secret []byte, userID domain.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken checks the signature and expiry of tokenString.
func parseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.userID() == "" {
		return nil, errors.New("credential has no subject")
	}
	return claims, nil
}

// authError wraps err so callers can match domain.ErrAuthentication.
func authError(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", domain.ErrAuthentication, reason)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrAuthentication, reason, err)
}
