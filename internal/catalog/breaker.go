package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/chatgate/internal/domain"
	"github.com/nfrund/chatgate/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configure a Breaker.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Cooldown is how long the circuit stays open before a trial call.
	Cooldown time.Duration
	// Timeout bounds every search call.
	Timeout time.Duration
}

// Breaker guards a Searcher with a per-call timeout and a circuit breaker.
// Every failure it returns wraps domain.ErrSearch.
type Breaker struct {
	next    Searcher
	cb      *gobreaker.CircuitBreaker[Results]
	timeout time.Duration
}

// NewBreaker wraps next.
func NewBreaker(next Searcher, s BreakerSettings) *Breaker {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Second
	}

	metrics.CatalogBreakerState.Set(stateToFloat(gobreaker.StateClosed))
	cb := gobreaker.NewCircuitBreaker[Results](gobreaker.Settings{
		Name:        "catalog-search",
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state transition", "name", name, "from", from.String(), "to", to.String())
			metrics.CatalogBreakerState.Set(stateToFloat(to))
		},
	})

	return &Breaker{next: next, cb: cb, timeout: s.Timeout}
}

// Search implements Searcher.
func (b *Breaker) Search(ctx context.Context, query string) (Results, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	results, err := b.cb.Execute(func() (Results, error) {
		return b.next.Search(ctx, query)
	})
	if err != nil {
		return Results{}, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}
	return results, nil
}

// State returns the current circuit state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
