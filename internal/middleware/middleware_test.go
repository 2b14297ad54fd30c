package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/origin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator accepts the bearer token "good".
type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, _ string, r *http.Request) (domain.Identity, error) {
	if r.Header.Get("Authorization") == "Bearer good" {
		return domain.Identity{UserID: "user:alice", UserName: "Alice"}, nil
	}
	return domain.Identity{}, domain.ErrAuthentication
}

func TestAuth(t *testing.T) {
	e := echo.New()
	e.GET("/private", func(c echo.Context) error {
		identity, ok := IdentityFrom(c)
		require.True(t, ok)
		return c.String(http.StatusOK, identity.UserName)
	}, Auth(stubAuthenticator{}))

	t.Run("valid credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Alice", rec.Body.String())
	})

	t.Run("missing credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCORS_UsesOriginMatcher(t *testing.T) {
	e := echo.New()
	e.Use(CORS(origin.New("http://a.com")))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tests := []struct {
		origin string
		want   string
	}{
		{"http://a.com", "http://a.com"},
		{"https://a.com:9999", "https://a.com:9999"},
		{"http://b.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderOrigin, tt.origin)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
		})
	}
}

func TestLogger_InjectsRequestLogger(t *testing.T) {
	e := echo.New()
	var got bool
	e.GET("/", func(c echo.Context) error {
		got = FromContext(c.Request().Context()) != nil
		return c.NoContent(http.StatusOK)
	}, Logger)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, got)
	assert.NotNil(t, FromContext(context.Background()))
}
