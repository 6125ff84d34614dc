// Package edgar polls SEC EDGAR for new filings. Per-company filings come
// from the submissions JSON API on data.sec.gov; the SEC fair-use policy
// requires a declared User-Agent and at most 10 requests per second.
package edgar

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

const (
	// sweepWindow bounds how far back a full sweep looks. Sweeps overlap;
	// the fingerprint store collapses re-discovered filings.
	sweepWindow = 48 * time.Hour

	// tickerWindow bounds a single-company rescan.
	tickerWindow = 30 * 24 * time.Hour

	// sweepConcurrency caps parallel company fetches during a sweep.
	sweepConcurrency = 4
)

// Scanner fetches filings from SEC EDGAR.
type Scanner struct {
	httpClient *httputil.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
	companies  contracts.CompanyRepository
	baseURL    string
	userAgent  string
}

// New creates the EDGAR scanner.
func New(cfg config.EDGARConfig, companies contracts.CompanyRepository, httpClient *httputil.Client, log *logger.Logger) *Scanner {
	return &Scanner{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(10, 10),
		logger:     log,
		companies:  companies,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
	}
}

// Key returns the registry key.
func (s *Scanner) Key() string { return "edgar" }

// Name returns the source name.
func (s *Scanner) Name() string { return "SEC EDGAR" }

// EventTypes lists the canonical types this scanner emits.
func (s *Scanner) EventTypes() []contracts.EventType {
	return []contracts.EventType{
		contracts.EventSEC8K,
		contracts.EventSEC10K,
		contracts.EventSEC10Q,
		contracts.EventSECS1,
		contracts.EventSEC13D,
	}
}

// submissionsResponse mirrors data.sec.gov/submissions/CIK##########.json.
// Filing attributes are parallel arrays indexed together.
type submissionsResponse struct {
	CIK            json.Number   `json:"cik"`
	Name           string        `json:"name"`
	Tickers        []string      `json:"tickers"`
	SICDescription string        `json:"sicDescription"`
	Filings        filingsBucket `json:"filings"`
}

type filingsBucket struct {
	Recent recentFilings `json:"recent"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	PrimaryDocDesc  []string `json:"primaryDocDescription"`
	Items           []string `json:"items"`
}

// formEventType maps an EDGAR form type to the canonical taxonomy.
// Amendments ("8-K/A") classify as their base form.
func formEventType(form string) (contracts.EventType, bool) {
	base := strings.TrimSuffix(strings.TrimSpace(form), "/A")
	switch base {
	case "8-K":
		return contracts.EventSEC8K, true
	case "10-K":
		return contracts.EventSEC10K, true
	case "10-Q":
		return contracts.EventSEC10Q, true
	case "S-1":
		return contracts.EventSECS1, true
	case "SC 13D":
		return contracts.EventSEC13D, true
	}
	return "", false
}

// filingURL builds the public document URL for a filing.
func filingURL(cik, accession, doc string) string {
	cikTrimmed := strings.TrimLeft(cik, "0")
	accFlat := strings.ReplaceAll(accession, "-", "")
	return "https://www.sec.gov/Archives/edgar/data/" + cikTrimmed + "/" + accFlat + "/" + doc
}

// padCIK left-pads a CIK to the 10 digits the submissions API expects.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

// filingTitle prefers the primary document description, falling back to the
// form type.
func filingTitle(form, desc string) string {
	desc = strings.TrimSpace(desc)
	if desc != "" {
		return desc
	}
	return strings.TrimSpace(form) + " filing"
}
