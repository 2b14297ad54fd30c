package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/middleware"
	"github.com/samber/lo"
)

// connectBurst is the number of back-to-back connection attempts allowed per IP.
const connectBurst = 5

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	s.E.GET("/metrics", echoprometheus.NewHandler())

	s.E.GET("/socket", s.gateway.Handler(), middleware.RateLimiter(s.cfg.ConnectRateLimit, connectBurst))

	api := s.E.Group("/api", middleware.Auth(s.authn))
	api.GET("/messages", s.listMessages)
}

// historyResponse is the body of GET /api/messages.
type historyResponse struct {
	Messages []domain.MessageView `json:"messages"`
}

// listMessages returns the most recent messages, oldest first.
func (s *Server) listMessages(c echo.Context) error {
	limit := s.cfg.HistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, s.cfg.HistoryLimit)
	}

	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)
	if identity, ok := middleware.IdentityFrom(c); ok {
		logger = logger.With("userID", identity.UserID)
	}

	msgs, err := s.messages.ListRecent(ctx, limit)
	if err != nil {
		logger.Error("Failed to list messages", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load messages")
	}
	logger.Debug("History served", "limit", limit, "count", len(msgs))

	return c.JSON(http.StatusOK, historyResponse{
		Messages: lo.Map(msgs, func(m *domain.ChatMessage, _ int) domain.MessageView {
			return m.View()
		}),
	})
}
