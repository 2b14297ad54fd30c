package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatgate/internal/domain"
)

// IdentityContextKey is the echo context key of the authenticated identity.
const IdentityContextKey = "identity"

// Authenticator resolves the credential carried by a request.
type Authenticator interface {
	Authenticate(ctx context.Context, handshakeToken string, r *http.Request) (domain.Identity, error)
}

// Auth protects routes with the same credentials the socket accepts, taken
// from the token query parameter or an Authorization bearer header.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			identity, err := authn.Authenticate(ctx, "", c.Request())
			if err != nil {
				FromContext(ctx).Info("Rejected unauthenticated request", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication error")
			}

			c.Set(IdentityContextKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(IdentityContextKey).(domain.Identity)
	return identity, ok
}
