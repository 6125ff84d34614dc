package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "fatal", LogFormat: "json"})
}

type stubEvents struct {
	listFunc  func(ctx context.Context, filter contracts.EventFilter) ([]*contracts.Event, error)
	getFunc   func(ctx context.Context, id int64) (*contracts.Event, error)
	lastList  contracts.EventFilter
	listCalls int
}

func (s *stubEvents) Insert(context.Context, *contracts.Event) (bool, int64, error) {
	return false, 0, nil
}

func (s *stubEvents) UpdateScore(context.Context, *contracts.Event) error { return nil }

func (s *stubEvents) GetByID(ctx context.Context, id int64) (*contracts.Event, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	return nil, nil
}

func (s *stubEvents) GetByFingerprint(context.Context, string) (*contracts.Event, error) {
	return nil, nil
}

func (s *stubEvents) List(ctx context.Context, filter contracts.EventFilter) ([]*contracts.Event, error) {
	s.lastList = filter
	s.listCalls++
	if s.listFunc != nil {
		return s.listFunc(ctx, filter)
	}
	return []*contracts.Event{}, nil
}

func (s *stubEvents) CountRecentSimilar(context.Context, string, contracts.EventType, time.Time) (int, error) {
	return 0, nil
}

func TestListEventsParsesFilters(t *testing.T) {
	store := &stubEvents{}
	h := NewEventsHandler(store, testLogger())

	req := httptest.NewRequest("GET",
		"/api/events?ticker=acme&sector=biotech&event_type=fda_approval&direction=positive"+
			"&min_score=60&info_tier=primary&from=2025-08-01&to=2025-08-20"+
			"&since=2025-08-19T10%3A00%3A00Z&limit=25", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "ACME", store.lastList.Ticker)
	assert.Equal(t, "biotech", store.lastList.Sector)
	assert.Equal(t, contracts.EventFDAApproval, store.lastList.EventType)
	assert.Equal(t, contracts.DirectionPositive, store.lastList.Direction)
	assert.Equal(t, contracts.TierPrimary, store.lastList.InfoTier)
	assert.Equal(t, 60, store.lastList.MinScore)
	assert.Equal(t, 25, store.lastList.Limit)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), store.lastList.From)
	assert.Equal(t, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), store.lastList.To)
	assert.Equal(t, time.Date(2025, 8, 19, 10, 0, 0, 0, time.UTC), store.lastList.Since)
}

func TestListEventsRejectsBadParams(t *testing.T) {
	h := NewEventsHandler(&stubEvents{}, testLogger())

	for _, url := range []string{
		"/api/events?min_score=high",
		"/api/events?limit=ten",
		"/api/events?from=08-01-2025",
		"/api/events?to=soon",
		"/api/events?since=yesterday",
	} {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest("GET", url, nil))
		assert.Equal(t, 400, rec.Code, url)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"], url)
	}
}

func TestListEventsStoreFailure(t *testing.T) {
	store := &stubEvents{
		listFunc: func(context.Context, contracts.EventFilter) ([]*contracts.Event, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewEventsHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/events", nil))

	assert.Equal(t, 500, rec.Code)
}

func TestGetEventByID(t *testing.T) {
	store := &stubEvents{
		getFunc: func(_ context.Context, id int64) (*contracts.Event, error) {
			return &contracts.Event{ID: id, Ticker: "ACME", ImpactScore: 72}, nil
		},
	}
	h := NewEventsHandler(store, testLogger())

	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/events/42", nil),
		map[string]string{"id": "42"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, 200, rec.Code)

	var event contracts.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.Equal(t, int64(42), event.ID)
	assert.Equal(t, "ACME", event.Ticker)
}

func TestGetEventNotFound(t *testing.T) {
	h := NewEventsHandler(&stubEvents{}, testLogger())

	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/events/99", nil),
		map[string]string{"id": "99"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestGetEventBadID(t *testing.T) {
	h := NewEventsHandler(&stubEvents{}, testLogger())

	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/events/abc", nil),
		map[string]string{"id": "abc"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, 400, rec.Code)
}
