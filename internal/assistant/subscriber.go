package assistant

import (
	"context"
	"log/slog"

	"github.com/nfrund/chatgate/internal/chat"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/pubsub"
)

// Subscribe schedules a reply for every chat.MessageCreated event on sub
// until ctx is done.
func (r *Responder) Subscribe(ctx context.Context, sub pubsub.Subscriber) error {
	slog.Info("Assistant listening", "topic", chat.MessageCreated.Name())
	return pubsub.Subscribe(ctx, sub, chat.MessageCreated, func(_ context.Context, evt chat.MessageCreatedEvent) error {
		if evt.UserID == domain.Assistant.UserID {
			return nil
		}
		r.Schedule(evt.Text)
		return nil
	})
}
