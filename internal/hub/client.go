package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

const (
	// sendBufferSize bounds the per-connection backlog. A consumer that
	// falls further behind loses its oldest buffered events first.
	sendBufferSize = 500

	pingInterval   = 15 * time.Second
	pongWait       = 45 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// streamMessage is the wire envelope pushed to subscribers.
type streamMessage struct {
	Type  string           `json:"type"`
	Event *contracts.Event `json:"event"`
}

// Client is one live websocket subscription.
type Client struct {
	hub      *Hub
	caller   contracts.Caller
	conn     *websocket.Conn
	minScore int

	mu      sync.Mutex
	send    chan *contracts.Event
	closed  bool
	dropped int
}

func newClient(h *Hub, caller contracts.Caller, conn *websocket.Conn) *Client {
	return &Client{
		hub:      h,
		caller:   caller,
		conn:     conn,
		minScore: caller.Plan.StreamMinScore(),
		send:     make(chan *contracts.Event, sendBufferSize),
	}
}

// enqueue buffers the event for delivery, evicting the oldest buffered
// event when full. The client mutex is the only producer gate, so eviction
// always frees room before the retry.
func (c *Client) enqueue(event *contracts.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	for {
		select {
		case c.send <- event:
			return
		default:
			select {
			case <-c.send:
				c.dropped++
			default:
			}
		}
	}
}

// shutdown marks the client closed and closes its buffer. Safe to call
// more than once; enqueue checks closed under the same mutex.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Dropped returns how many buffered events were evicted for this
// connection.
func (c *Client) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// writePump streams buffered events and pings the peer. It exits when the
// buffer is closed or a write fails, tearing the connection down.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(streamMessage{Type: "event", Event: event}); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames and inbound noise. Pongs extend the
// read deadline; any read error tears the connection down.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.WithError(err).WithField("user", c.caller.Actor()).Debug("Stream read failed")
			}
			return
		}
	}
}
