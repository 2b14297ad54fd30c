package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/chatgate/internal/domain"
)

var validate = validator.New()

// SendRequest is the payload of a chat:send event.
type SendRequest struct {
	Text string
}

// sendPayload is the accepted wire shape. Text is a pointer so a missing
// field can be told apart from an empty one.
type sendPayload struct {
	Text *string `json:"text" validate:"required"`
}

// ParseSendRequest validates a chat:send payload. It requires a string "text"
// field; other fields are ignored. The text is trimmed and must not be empty.
// Every failure wraps domain.ErrValidation.
func ParseSendRequest(raw json.RawMessage) (SendRequest, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return SendRequest{}, fmt.Errorf("%w: missing payload", domain.ErrValidation)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	var p sendPayload
	if err := dec.Decode(&p); err != nil {
		return SendRequest{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if dec.More() {
		return SendRequest{}, fmt.Errorf("%w: trailing data after payload", domain.ErrValidation)
	}
	if err := validate.Struct(p); err != nil {
		return SendRequest{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	text := strings.TrimSpace(*p.Text)
	if text == "" {
		return SendRequest{}, fmt.Errorf("%w: text is empty", domain.ErrValidation)
	}
	return SendRequest{Text: text}, nil
}
