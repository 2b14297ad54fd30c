package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/chatgate/internal/metrics"
)

// Registry tracks admitted connections and broadcasts to them. All methods are
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[*Client]struct{}),
	}
}

// Admit registers an authenticated client. Admitting the same client twice has
// no effect.
func (r *Registry) Admit(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client]; ok {
		return
	}
	r.clients[client] = struct{}{}
	metrics.ConnectionsActive.Inc()
	slog.Info("Client admitted", "clientID", client.ID, "userID", client.identity.UserID, "total_clients", len(r.clients))
}

// Remove deregisters client and closes its send queue. It is idempotent.
func (r *Registry) Remove(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client]; !ok {
		return
	}
	delete(r.clients, client)
	client.close()
	metrics.ConnectionsActive.Dec()
	slog.Info("Client removed",
		"clientID", client.ID,
		"userID", client.identity.UserID,
		"connected_for", time.Since(client.ConnectedAt).Round(time.Millisecond),
		"total_clients", len(r.clients),
	)
}

// Broadcast delivers event to every admitted client, the sender included.
// It never blocks on a slow client and never fails: a client whose queue is
// full misses the frame and the others are unaffected. Two broadcasts made
// one after the other reach each client in that order.
func (r *Registry) Broadcast(event string, data any) {
	frame, err := EncodeFrame(event, data, nil)
	if err != nil {
		slog.Error("Dropping broadcast that could not be encoded", "event", event, "error", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.Debug("Broadcasting frame", "event", event, "recipient_count", len(r.clients))
	for client := range r.clients {
		if !client.enqueue(frame) {
			metrics.BroadcastDrops.Inc()
			slog.Warn("Client send queue full, dropping frame", "clientID", client.ID, "userID", client.identity.UserID, "event", event)
		}
	}
}

// Count returns the number of admitted clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
