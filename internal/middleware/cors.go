package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// OriginAllower decides whether an origin may talk to the gateway.
type OriginAllower interface {
	Allowed(origin string) bool
}

// CORS applies the origin allow-list to cross-origin HTTP requests, so the
// HTTP endpoints and the socket upgrade accept exactly the same origins.
func CORS(origins OriginAllower) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return origins.Allowed(origin), nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	})
}
