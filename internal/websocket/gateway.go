package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatgate/internal/chat"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/metrics"
)

// authErrorMessage is the only detail a refused client is told.
const authErrorMessage = "Authentication error"

// OriginPolicy decides whether a declared origin may connect.
type OriginPolicy interface {
	Check(origin string) error
}

// Authenticator resolves the credential of a connection attempt.
type Authenticator interface {
	Authenticate(ctx context.Context, handshakeToken string, r *http.Request) (domain.Identity, error)
}

// MessageHandler handles chat:send events.
type MessageHandler interface {
	Handle(ctx context.Context, identity domain.Identity, payload json.RawMessage) chat.Ack
}

// Options tune the gateway.
type Options struct {
	// HandshakeTimeout bounds the wait for the connect frame and its verification.
	HandshakeTimeout time.Duration
	// SendBuffer is the size of each client's outbound queue.
	SendBuffer int
}

// Gateway terminates websocket connections: it checks the origin, runs the
// handshake, admits the client to the registry and dispatches its frames.
type Gateway struct {
	registry *Registry
	origins  OriginPolicy
	auth     Authenticator
	messages MessageHandler
	opts     Options
}

// NewGateway creates a Gateway.
func NewGateway(registry *Registry, origins OriginPolicy, auth Authenticator, messages MessageHandler, opts Options) *Gateway {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &Gateway{
		registry: registry,
		origins:  origins,
		auth:     auth,
		messages: messages,
		opts:     opts,
	}
}

// Handler returns an echo.HandlerFunc that upgrades the request and serves the
// connection until it closes.
func (g *Gateway) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		if err := g.origins.Check(r.Header.Get("Origin")); err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "Origin not allowed")
		}

		// The origin was checked above against the configured allow-list.
		conn, err := websocket.Accept(c.Response(), r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			// Accept has already written the error response.
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		g.serve(r.Context(), r, conn)
		return nil
	}
}

// serve runs one connection from handshake to removal.
func (g *Gateway) serve(ctx context.Context, r *http.Request, conn *websocket.Conn) {
	identity, err := g.handshake(ctx, r, conn)
	if err != nil {
		metrics.AuthFailures.Inc()
		slog.Warn("Refusing WebSocket connection", "remote_addr", r.RemoteAddr, "error", err)
		g.refuse(conn)
		return
	}

	client := NewClient(identity, g.opts.SendBuffer)
	client.conn = conn
	if frame, err := EncodeFrame(EventConnected, identity, nil); err == nil {
		client.enqueue(frame)
	}

	g.registry.Admit(client)
	defer g.registry.Remove(client)

	go client.writePump(client.Queue())
	g.readLoop(ctx, client)
}

// handshake reads the connect frame and authenticates the connection.
func (g *Gateway) handshake(ctx context.Context, r *http.Request, conn *websocket.Conn) (domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.HandshakeTimeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: no connect frame: %v", domain.ErrAuthentication, err)
	}
	frame, err := DecodeFrame(data)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}
	if frame.Event != EventConnect {
		return domain.Identity{}, fmt.Errorf("%w: expected %q frame, got %q", domain.ErrAuthentication, EventConnect, frame.Event)
	}
	return g.auth.Authenticate(ctx, handshakeToken(frame), r)
}

// refuse tells the client why it is rejected and closes the connection.
func (g *Gateway) refuse(conn *websocket.Conn) {
	if frame, err := EncodeFrame(EventConnectError, errorData{Message: authErrorMessage}, nil); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		_ = conn.Write(ctx, websocket.MessageText, frame)
		cancel()
	}
	conn.Close(websocket.StatusPolicyViolation, authErrorMessage)
}

// readLoop handles the client's frames one at a time until the connection ends.
func (g *Gateway) readLoop(ctx context.Context, client *Client) {
	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "clientID", client.ID, "userID", client.identity.UserID)
			} else if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				slog.Warn("WebSocket read error", "clientID", client.ID, "userID", client.identity.UserID, "error", err)
			}
			return
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			slog.Warn("Ignoring malformed frame", "clientID", client.ID, "error", err)
			continue
		}
		g.dispatch(ctx, client, frame)
	}
}

// dispatch routes one frame.
func (g *Gateway) dispatch(ctx context.Context, client *Client, frame Frame) {
	switch frame.Event {
	case EventChatSend:
		g.ack(client, frame.AckID, g.messages.Handle(ctx, client.identity, frame.Data))
	case EventConnect:
		slog.Debug("Ignoring repeated connect frame", "clientID", client.ID)
	default:
		slog.Warn("Ignoring unknown event", "clientID", client.ID, "event", frame.Event)
		g.ack(client, frame.AckID, chat.Failure("Unknown event"))
	}
}

// ack sends ack to the client when the frame asked for one.
func (g *Gateway) ack(client *Client, ackID *int64, ack chat.Ack) {
	if ackID == nil {
		return
	}
	frame, err := EncodeFrame(EventAck, ack, ackID)
	if err != nil {
		slog.Error("Failed to encode ack", "clientID", client.ID, "error", err)
		return
	}
	if !client.enqueue(frame) {
		slog.Warn("Client send queue full, dropping ack", "clientID", client.ID, "ackID", *ackID)
	}
}
