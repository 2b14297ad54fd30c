package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/chatgate/internal/config"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/middleware"
	"github.com/nfrund/chatgate/internal/websocket"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// requestMetrics records per-route request counts and latencies. The
// collectors live in the default registry, so the middleware is built once per
// process.
var requestMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("chatgate")
})

// Deps are the components the HTTP surface exposes.
type Deps struct {
	Config        *config.Config
	Gateway       *websocket.Gateway
	Messages      domain.MessageStore
	Authenticator middleware.Authenticator
	Origins       middleware.OriginAllower
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	cfg      *config.Config
	gateway  *websocket.Gateway
	messages domain.MessageStore
	authn    middleware.Authenticator
}

// New creates a Server with its middleware chain and routes.
func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger := middleware.FromContext(c.Request().Context())
			if v.Error != nil {
				logger.Warn("Request failed", "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			logger.Debug("Request handled", "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(requestMetrics())
	e.Use(middleware.CORS(d.Origins))

	s := &Server{
		E:        e,
		cfg:      d.Config,
		gateway:  d.Gateway,
		messages: d.Messages,
		authn:    d.Authenticator,
	}
	s.RegisterRoutes()
	return s
}

// Start serves HTTP on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.cfg.HTTPAddr)
		if err := s.E.Start(s.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.E.Shutdown(shutdownCtx)
}
