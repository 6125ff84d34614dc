// Package hub fans newly scored events out to live websocket subscribers.
// Each connection gets a bounded buffer; slow consumers lose their oldest
// buffered events rather than stalling the publisher or other subscribers.
package hub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// ErrConnectionLimit is returned by Register when the caller already holds
// as many stream connections as the plan allows.
var ErrConnectionLimit = errors.New("connection limit reached")

// Hub tracks live subscribers and implements contracts.Publisher.
type Hub struct {
	logger *logger.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	byUser  map[int64]int
}

// New creates an empty hub.
func New(log *logger.Logger) *Hub {
	return &Hub{
		logger:  log.WithField("module", "hub"),
		clients: make(map[*Client]bool),
		byUser:  make(map[int64]int),
	}
}

// Register admits a connection for the caller and starts its pumps. The
// per-user connection cap comes from the caller's plan.
func (h *Hub) Register(caller contracts.Caller, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.byUser[caller.UserID] >= caller.Plan.MaxConnections() {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: plan %q allows %d", ErrConnectionLimit, caller.Plan, caller.Plan.MaxConnections())
	}

	client := newClient(h, caller, conn)
	h.clients[client] = true
	h.byUser[caller.UserID]++
	total := len(h.clients)
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	h.logger.WithFields(map[string]interface{}{
		"user":  caller.Actor(),
		"total": total,
	}).Debug("Stream subscriber connected")

	return client, nil
}

// Publish fans the event out to every subscriber whose plan admits its
// score. Buffer pressure is absorbed per connection; Publish never blocks.
func (h *Hub) Publish(event *contracts.Event) {
	if event == nil {
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if event.ImpactScore < c.minScore {
			continue
		}
		c.enqueue(event)
	}
}

// unregister removes the client, frees its slot against the per-user cap,
// and closes its buffer so the write pump drains out.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.byUser[c.caller.UserID]--
	if h.byUser[c.caller.UserID] <= 0 {
		delete(h.byUser, c.caller.UserID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.shutdown()

	h.logger.WithFields(map[string]interface{}{
		"user":    c.caller.Actor(),
		"dropped": c.Dropped(),
		"total":   total,
	}).Debug("Stream subscriber disconnected")
}

// ClientCount returns the number of live subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
