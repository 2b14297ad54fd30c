// Package chat turns chat:send requests into persisted, broadcast messages.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/metrics"
	"github.com/nfrund/chatgate/internal/pubsub"
)

// Pipeline handles chat:send events of admitted connections.
type Pipeline struct {
	store       domain.MessageStore
	broadcaster Broadcaster
	publisher   pubsub.Publisher
}

// NewPipeline creates a Pipeline. publisher may be nil, in which case no
// MessageCreated events are emitted.
func NewPipeline(store domain.MessageStore, broadcaster Broadcaster, publisher pubsub.Publisher) *Pipeline {
	return &Pipeline{
		store:       store,
		broadcaster: broadcaster,
		publisher:   publisher,
	}
}

// Handle validates payload, persists it as a message of identity and
// broadcasts it. It never returns an error: every outcome is reported in the
// Ack. On success a MessageCreated event is published without waiting for it.
func (p *Pipeline) Handle(ctx context.Context, identity domain.Identity, payload json.RawMessage) Ack {
	req, err := ParseSendRequest(payload)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		slog.Debug("Rejected chat message", "userID", identity.UserID, "error", err)
		return Failure(MsgRequired)
	}

	view, err := p.Post(ctx, identity, req.Text)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		slog.Error("Failed to send chat message", "userID", identity.UserID, "error", err)
		return Failure(MsgSendFailed)
	}
	metrics.MessagesTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	if identity.UserID != domain.Assistant.UserID {
		p.notify(MessageCreatedEvent{
			MessageID: view.ID,
			UserID:    identity.UserID,
			UserName:  identity.UserName,
			Text:      req.Text,
		})
	}
	return Sent(view)
}

// Post persists text as a message of identity and broadcasts it. It is shared
// by user messages and assistant replies.
func (p *Pipeline) Post(ctx context.Context, identity domain.Identity, text string) (domain.MessageView, error) {
	msg, err := p.store.Create(ctx, domain.NewMessage{
		UserID:   identity.UserID,
		UserName: identity.UserName,
		Text:     text,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPersistence) {
			err = errors.Join(domain.ErrPersistence, err)
		}
		return domain.MessageView{}, err
	}

	view := msg.View()
	p.broadcaster.Broadcast(EventChatMessage, view)
	return view, nil
}

// notify publishes evt in the background. A failed publish is only logged.
func (p *Pipeline) notify(evt MessageCreatedEvent) {
	if p.publisher == nil {
		return
	}
	go func() {
		if err := pubsub.Publish(context.Background(), p.publisher, MessageCreated, evt.UserID.String(), evt); err != nil {
			slog.Error("Failed to publish message created event", "messageID", evt.MessageID, "error", err)
		}
	}()
}
