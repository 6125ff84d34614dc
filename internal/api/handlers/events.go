package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// EventsHandler serves the canonical event store.
type EventsHandler struct {
	events contracts.EventRepository
	logger *logger.Logger
}

// NewEventsHandler creates the events handler.
func NewEventsHandler(events contracts.EventRepository, log *logger.Logger) *EventsHandler {
	return &EventsHandler{events: events, logger: log}
}

// List returns events matching the query filters. The since parameter is the
// created_at cursor stream clients use to catch up after a reconnect.
// GET /api/events
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.events.List(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list events")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// Get returns a single event.
// GET /api/events/{id}
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	event, err := h.events.GetByID(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get event")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve event")
		return
	}
	if event == nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

func parseEventFilter(r *http.Request) (contracts.EventFilter, error) {
	q := r.URL.Query()
	filter := contracts.EventFilter{
		Ticker:    strings.ToUpper(strings.TrimSpace(q.Get("ticker"))),
		Sector:    q.Get("sector"),
		EventType: contracts.EventType(q.Get("event_type")),
		Direction: contracts.Direction(q.Get("direction")),
		InfoTier:  contracts.InfoTier(q.Get("info_tier")),
	}

	var err error
	if raw := q.Get("min_score"); raw != "" {
		if filter.MinScore, err = strconv.Atoi(raw); err != nil {
			return filter, fmt.Errorf("Invalid min_score %q (expected integer)", raw)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil {
			return filter, fmt.Errorf("Invalid limit %q (expected integer)", raw)
		}
	}
	if raw := q.Get("from"); raw != "" {
		if filter.From, err = time.Parse("2006-01-02", raw); err != nil {
			return filter, errors.New("Invalid 'from' date format (expected YYYY-MM-DD)")
		}
	}
	if raw := q.Get("to"); raw != "" {
		if filter.To, err = time.Parse("2006-01-02", raw); err != nil {
			return filter, errors.New("Invalid 'to' date format (expected YYYY-MM-DD)")
		}
	}
	if raw := q.Get("since"); raw != "" {
		if filter.Since, err = time.Parse(time.RFC3339, raw); err != nil {
			return filter, errors.New("Invalid 'since' timestamp (expected RFC3339)")
		}
	}

	return filter, nil
}
