// Package presswire crawls the PR Newswire release listing. Headlines are
// classified onto the canonical taxonomy by keyword and the ticker is pulled
// from the exchange parenthetical most releases carry, e.g. "(NASDAQ: ACME)".
// Releases that classify to nothing or carry no ticker are skipped.
package presswire

import (
	"regexp"
	"strings"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// listPageSize bounds one sweep; the dedup store absorbs overlap between runs.
const listPageSize = 100

// Scanner crawls press releases from the wire listing.
type Scanner struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// New creates the press release scanner.
func New(cfg config.PresswireConfig, httpClient *httputil.Client, log *logger.Logger) *Scanner {
	return &Scanner{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Key returns the registry key.
func (s *Scanner) Key() string { return "presswire" }

// Name returns the source name.
func (s *Scanner) Name() string { return "PR Newswire" }

// EventTypes lists the canonical types the headline classifier can emit.
func (s *Scanner) EventTypes() []contracts.EventType {
	return []contracts.EventType{
		contracts.EventProductLaunch,
		contracts.EventPartnership,
		contracts.EventMergerAcq,
		contracts.EventLawsuit,
		contracts.EventExecutiveChange,
		contracts.EventFDARejection,
		contracts.EventGuidanceRaise,
		contracts.EventGuidanceCut,
	}
}

// tickerPattern matches the exchange parenthetical wire services put after
// the company name. The alternation lists multi-word exchanges first.
var tickerPattern = regexp.MustCompile(`\((NYSE American|NYSE|NASDAQ|Nasdaq|AMEX|OTCQX|OTCQB|OTC)\s*:\s*([A-Z]{1,6})\)`)

// extractTicker pulls the ticker and company name out of a headline. The
// company name is the headline text preceding the exchange parenthetical.
func extractTicker(text string) (ticker, company string, ok bool) {
	loc := tickerPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", "", false
	}

	ticker = text[loc[4]:loc[5]]

	company = strings.TrimSpace(text[:loc[0]])
	if len(company) > 80 {
		company = ""
	}

	return ticker, company, true
}

// headlineRules maps keywords onto the taxonomy. First match wins, so the
// specific rules come before the broad ones.
var headlineRules = []struct {
	keyword string
	event   contracts.EventType
}{
	{"complete response letter", contracts.EventFDARejection},
	{"raises guidance", contracts.EventGuidanceRaise},
	{"raises full-year", contracts.EventGuidanceRaise},
	{"raises fiscal", contracts.EventGuidanceRaise},
	{"increases guidance", contracts.EventGuidanceRaise},
	{"lowers guidance", contracts.EventGuidanceCut},
	{"cuts guidance", contracts.EventGuidanceCut},
	{"reduces guidance", contracts.EventGuidanceCut},
	{"withdraws guidance", contracts.EventGuidanceCut},
	{"to acquire", contracts.EventMergerAcq},
	{"to be acquired", contracts.EventMergerAcq},
	{"acquisition of", contracts.EventMergerAcq},
	{"completes acquisition", contracts.EventMergerAcq},
	{"merger", contracts.EventMergerAcq},
	{"class action", contracts.EventLawsuit},
	{"lawsuit", contracts.EventLawsuit},
	{"files suit", contracts.EventLawsuit},
	{"litigation", contracts.EventLawsuit},
	{"appoints", contracts.EventExecutiveChange},
	{"names new", contracts.EventExecutiveChange},
	{"steps down", contracts.EventExecutiveChange},
	{"resigns", contracts.EventExecutiveChange},
	{"interim ceo", contracts.EventExecutiveChange},
	{"partnership", contracts.EventPartnership},
	{"partners with", contracts.EventPartnership},
	{"collaboration", contracts.EventPartnership},
	{"strategic alliance", contracts.EventPartnership},
	{"teams up", contracts.EventPartnership},
	{"launches", contracts.EventProductLaunch},
	{"launch of", contracts.EventProductLaunch},
	{"unveils", contracts.EventProductLaunch},
	{"introduces", contracts.EventProductLaunch},
	{"now available", contracts.EventProductLaunch},
}

// classifyHeadline assigns a canonical type to a headline. The matched
// keyword is returned for the record's subtype.
func classifyHeadline(title string) (contracts.EventType, string, bool) {
	lower := strings.ToLower(title)
	for _, rule := range headlineRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.event, rule.keyword, true
		}
	}
	return "", "", false
}

// parseListTime parses the listing's timestamp. Today's releases show a
// clock time, older ones a date; anything else falls back to now.
func parseListTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)

	if t, err := time.Parse("15:04 ET", s); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	}
	if t, err := time.Parse("Jan 02, 2006", s); err == nil {
		return t
	}
	return now
}

// absoluteURL resolves listing hrefs against the wire host.
func (s *Scanner) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return s.baseURL + href
}
