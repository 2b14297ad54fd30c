package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/nfrund/chatgate/internal/domain"
)

// Verifier validates credentials and resolves them to an identity.
type Verifier struct {
	secret []byte
	users  domain.UserDirectory
}

// NewVerifier creates a Verifier that checks HS256 signatures with secret and
// resolves subjects through users.
func NewVerifier(secret []byte, users domain.UserDirectory) *Verifier {
	return &Verifier{secret: secret, users: users}
}

// Verify checks signature and expiry of token and looks its subject up in the
// user directory. It either returns a complete identity or an error wrapping
// domain.ErrAuthentication.
func (v *Verifier) Verify(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := parseToken(v.secret, token)
	if err != nil {
		return domain.Identity{}, authError("invalid credential", err)
	}

	user, err := v.users.FindByID(ctx, claims.userID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, authError("user not found", nil)
		}
		return domain.Identity{}, authError("user lookup failed", err)
	}
	if user == nil {
		return domain.Identity{}, authError("user not found", nil)
	}
	identity := user.Identity()
	if identity.UserID == "" {
		identity.UserID = claims.userID()
	}
	return identity, nil
}

// Authenticate extracts the credential of a connection attempt and verifies it.
func (v *Verifier) Authenticate(ctx context.Context, handshakeToken string, r *http.Request) (domain.Identity, error) {
	token, err := ExtractToken(handshakeToken, r)
	if err != nil {
		return domain.Identity{}, err
	}
	return v.Verify(ctx, token)
}
