package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/auth"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/hub"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// API-key auth happens before the upgrade; origin adds nothing.
		return true
	},
}

// StreamHandler upgrades authenticated requests onto the live event stream.
type StreamHandler struct {
	hub    *hub.Hub
	logger *logger.Logger
}

// NewStreamHandler creates the stream handler.
func NewStreamHandler(h *hub.Hub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{hub: h, logger: log}
}

// Connect upgrades the request and registers the subscriber. Plan caps are
// enforced at registration; over-cap connections are closed with a policy
// violation frame because the handshake has already consumed the socket.
// GET /api/stream
func (s *StreamHandler) Connect(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing API key")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.WithError(err).Debug("Stream upgrade failed")
		return
	}

	if _, err := s.hub.Register(caller, conn); err != nil {
		if errors.Is(err, hub.ErrConnectionLimit) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection limit reached"))
		}
		conn.Close()
		return
	}
}
