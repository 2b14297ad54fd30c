// Package assistant implements the automated chat participant that answers
// user messages after a short delay.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nfrund/chatgate/internal/catalog"
	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/metrics"
)

// Default reply delay bounds.
const (
	DefaultMinDelay = 1000 * time.Millisecond
	DefaultMaxDelay = 2000 * time.Millisecond
)

// Scheduler runs f once after d. Tasks are never cancelled.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// timeScheduler schedules on the runtime timer.
type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Poster persists a message for an identity and broadcasts it.
type Poster interface {
	Post(ctx context.Context, identity domain.Identity, text string) (domain.MessageView, error)
}

// Options tune a Responder. Zero values select the defaults.
type Options struct {
	MinDelay  time.Duration
	MaxDelay  time.Duration
	Scheduler Scheduler
}

// Responder produces the assistant's reply to user messages.
type Responder struct {
	searcher  catalog.Searcher
	poster    Poster
	composer  Composer
	scheduler Scheduler
	minDelay  time.Duration
	maxDelay  time.Duration
}

// NewResponder creates a Responder. searcher may be nil, in which case
// replies never include catalog matches.
func NewResponder(searcher catalog.Searcher, poster Poster, opts Options) *Responder {
	if opts.MinDelay <= 0 {
		opts.MinDelay = DefaultMinDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timeScheduler{}
	}
	return &Responder{
		searcher:  searcher,
		poster:    poster,
		scheduler: opts.Scheduler,
		minDelay:  opts.MinDelay,
		maxDelay:  opts.MaxDelay,
	}
}

// Schedule answers text after a delay drawn uniformly from the configured
// bounds. It returns at once; the reply runs detached from the caller and
// cannot be cancelled.
func (r *Responder) Schedule(text string) {
	delay := r.delay()
	slog.Debug("Scheduling assistant reply", "delay", delay)
	r.scheduler.AfterFunc(delay, func() {
		r.Respond(context.Background(), text)
	})
}

func (r *Responder) delay() time.Duration {
	if r.maxDelay == r.minDelay {
		return r.minDelay
	}
	return r.minDelay + rand.N(r.maxDelay-r.minDelay+1)
}

// Respond searches the catalog for text, composes a reply and posts it as the
// assistant. Failures are logged and the turn is dropped.
func (r *Responder) Respond(ctx context.Context, text string) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.AssistantReplies.WithLabelValues(metrics.ResultFailed).Inc()
			slog.Error("Assistant reply panicked", "panic", fmt.Sprint(rec))
		}
	}()

	results := r.search(ctx, text)
	reply := r.composer.Reply(text, results)

	view, err := r.poster.Post(ctx, domain.Assistant, reply)
	if err != nil {
		metrics.AssistantReplies.WithLabelValues(metrics.ResultDropped).Inc()
		slog.Error("Dropping assistant reply", "error", err)
		return
	}
	metrics.AssistantReplies.WithLabelValues(metrics.ResultSuccess).Inc()
	slog.Debug("Assistant replied", "messageID", view.ID)
}

// search returns empty results when the catalog is unavailable.
func (r *Responder) search(ctx context.Context, text string) catalog.Results {
	if r.searcher == nil {
		return catalog.Results{}
	}
	results, err := r.searcher.Search(ctx, text)
	if err != nil {
		if !errors.Is(err, domain.ErrSearch) {
			err = fmt.Errorf("%w: %w", domain.ErrSearch, err)
		}
		slog.Warn("Catalog search failed, replying without it", "error", err)
		return catalog.Results{}
	}
	return results
}
