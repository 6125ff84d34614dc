// Package earnings polls a calendar API for upcoming confirmed earnings
// dates. Calendar aggregators are secondary sources; a shifted date shows
// up as a fresh record and the old one ages out on its own.
package earnings

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// lookAhead bounds how far forward a sweep looks.
const lookAhead = 7 * 24 * time.Hour

// Scanner fetches upcoming earnings dates from the calendar API.
type Scanner struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// New creates the earnings calendar scanner.
func New(cfg config.EarningsConfig, httpClient *httputil.Client, log *logger.Logger) *Scanner {
	return &Scanner{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// Key returns the registry key.
func (s *Scanner) Key() string { return "earnings" }

// Name returns the source name.
func (s *Scanner) Name() string { return "Earnings Calendar" }

// EventTypes lists the canonical types this scanner emits.
func (s *Scanner) EventTypes() []contracts.EventType {
	return []contracts.EventType{contracts.EventEarnings}
}

// calendarResponse mirrors the calendar API's JSON.
type calendarResponse struct {
	Earnings []calendarEntry `json:"earnings"`
}

type calendarEntry struct {
	Ticker      string   `json:"ticker"`
	Company     string   `json:"company"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Quarter     string   `json:"quarter"`
	EPSEstimate *float64 `json:"eps_estimate"`
	Confirmed   bool     `json:"confirmed"`
}

// sessionLabel expands the calendar's session code.
func sessionLabel(code string) string {
	switch code {
	case "bmo":
		return "before market open"
	case "amc":
		return "after market close"
	default:
		return ""
	}
}

// endpoint builds the calendar URL for a window, optionally filtered to one
// symbol.
func (s *Scanner) endpoint(from, to time.Time, symbol string) string {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if s.apiKey != "" {
		q.Set("apikey", s.apiKey)
	}
	return fmt.Sprintf("%s/v1/calendar?%s", s.baseURL, q.Encode())
}
