package websocket

import (
	"encoding/json"
	"fmt"
)

// Event names of the wire protocol.
const (
	// EventConnect is the first frame a client sends. Its data may carry the
	// credential: {"auth":{"token":"..."}}.
	EventConnect = "connect"
	// EventConnected confirms admission and echoes the identity.
	EventConnected = "connected"
	// EventConnectError reports a refused handshake before the socket closes.
	EventConnectError = "connect_error"
	// EventAck answers a client frame that carried an ackId.
	EventAck = "ack"
	// EventChatSend is a client request to post a chat message. Persisted
	// messages come back as chat.EventChatMessage.
	EventChatSend = "chat:send"
)

// Frame is an inbound frame from a client.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID *int64          `json:"ackId,omitempty"`
}

// outFrame is an outbound frame. Data is marshalled as-is.
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	AckID *int64 `json:"ackId,omitempty"`
}

// connectData is the payload of the connect frame.
type connectData struct {
	Auth struct {
		Token string `json:"token"`
	} `json:"auth"`
}

// errorData is the payload of a connect_error frame.
type errorData struct {
	Message string `json:"message"`
}

// EncodeFrame serializes an outbound frame.
func EncodeFrame(event string, data any, ackID *int64) ([]byte, error) {
	b, err := json.Marshal(outFrame{Event: event, Data: data, AckID: ackID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", event, err)
	}
	return b, nil
}

// DecodeFrame parses an inbound frame.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("malformed frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("malformed frame: missing event")
	}
	return f, nil
}

// handshakeToken returns the credential carried by a connect frame, if any.
func handshakeToken(f Frame) string {
	if len(f.Data) == 0 {
		return ""
	}
	var data connectData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		return ""
	}
	return data.Auth.Token
}
