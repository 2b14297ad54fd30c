package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nfrund/chatgate/internal/auth"
	"github.com/nfrund/chatgate/internal/chat"
	"github.com/nfrund/chatgate/internal/config"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/origin"
	"github.com/nfrund/chatgate/internal/storage"
	"github.com/nfrund/chatgate/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("server-test-secret")

type fixture struct {
	server   *Server
	messages *storage.Messages
}

func setupServer(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := storage.NewUsers(db)
	require.NoError(t, users.Put(context.Background(), domain.User{ID: "user:alice", Name: "Alice"}))
	messages := storage.NewMessages(db)

	cfg := &config.Config{HTTPAddr: "127.0.0.1:0", HistoryLimit: 3}
	matcher := origin.New("http://chat.example.com")
	verifier := auth.NewVerifier(testSecret, users)
	registry := websocket.NewRegistry()

	s := New(Deps{
		Config:        cfg,
		Gateway:       websocket.NewGateway(registry, matcher, verifier, chat.NewPipeline(messages, registry, nil), websocket.Options{}),
		Messages:      messages,
		Authenticator: verifier,
		Origins:       matcher,
	})
	return &fixture{server: s, messages: messages}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.E.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := setupServer(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupServer(t)
	f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "chatgate_connections_active")
	assert.Contains(t, body, "chatgate_requests_total")
	assert.Contains(t, body, `url="/health"`)
}

func TestNew_CanBuildManyServers(t *testing.T) {
	assert.NotPanics(t, func() {
		setupServer(t)
		setupServer(t)
	})
}

func TestListMessages(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.messages.Create(ctx, domain.NewMessage{UserID: "user:alice", UserName: "Alice", Text: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}
	token, err := auth.NewToken(testSecret, "user:alice", time.Hour)
	require.NoError(t, err)

	get := func(query string, authorize bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/messages"+query, nil)
		if authorize {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return f.do(t, req)
	}

	t.Run("requires credentials", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get("", false).Code)
	})

	t.Run("default limit is the configured maximum", func(t *testing.T) {
		rec := get("", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body historyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Messages, 3)
		assert.Equal(t, "m2", body.Messages[0].Text)
		assert.Equal(t, "m4", body.Messages[2].Text)
		assert.Equal(t, "user:alice", body.Messages[0].UserID)
	})

	t.Run("smaller limit", func(t *testing.T) {
		var body historyResponse
		rec := get("?limit=1", true)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "m4", body.Messages[0].Text)
	})

	t.Run("token in query parameter", func(t *testing.T) {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/messages?token="+token, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get("?limit=zero", true).Code)
		assert.Equal(t, http.StatusBadRequest, get("?limit=-2", true).Code)
	})
}

func TestSocketRejectsForeignOrigin(t *testing.T) {
	f := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/socket", nil)
	req.Header.Set("Origin", "http://evil.example.org")

	rec := f.do(t, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	f := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.server.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
