// Package fda polls openFDA for drug approvals, enforcement recalls, and
// device clearances. openFDA keys records by sponsor/firm name, not ticker;
// records are emitted with the company name and resolved to a ticker at
// normalization or filtered against the directory for single-ticker scans.
package fda

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// scanWindow bounds how far back a sweep looks.
const scanWindow = 7 * 24 * time.Hour

// Scanner fetches FDA actions from openFDA.
type Scanner struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	companies  contracts.CompanyRepository
	baseURL    string
	apiKey     string
}

// New creates the FDA scanner.
func New(cfg config.FDAConfig, companies contracts.CompanyRepository, httpClient *httputil.Client, log *logger.Logger) *Scanner {
	return &Scanner{
		httpClient: httpClient,
		logger:     log,
		companies:  companies,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// Key returns the registry key.
func (s *Scanner) Key() string { return "fda" }

// Name returns the source name.
func (s *Scanner) Name() string { return "FDA openFDA" }

// EventTypes lists the canonical types this scanner emits.
func (s *Scanner) EventTypes() []contracts.EventType {
	return []contracts.EventType{
		contracts.EventFDAApproval,
		contracts.EventFDARecall,
		contracts.EventFDAClearance,
	}
}

// approvalsResponse mirrors /drug/drugsfda.json.
type approvalsResponse struct {
	Results []approvalResult `json:"results"`
}

type approvalResult struct {
	ApplicationNumber string          `json:"application_number"`
	SponsorName       string          `json:"sponsor_name"`
	Submissions       []submission    `json:"submissions"`
	Products          []productRecord `json:"products"`
}

type submission struct {
	SubmissionType       string `json:"submission_type"`
	SubmissionStatus     string `json:"submission_status"`
	SubmissionStatusDate string `json:"submission_status_date"`
	ReviewPriority       string `json:"review_priority"`
}

type productRecord struct {
	BrandName string `json:"brand_name"`
}

// enforcementResponse mirrors /drug/enforcement.json.
type enforcementResponse struct {
	Results []enforcementResult `json:"results"`
}

type enforcementResult struct {
	RecallingFirm       string `json:"recalling_firm"`
	ProductDescription  string `json:"product_description"`
	ReasonForRecall     string `json:"reason_for_recall"`
	Classification      string `json:"classification"`
	RecallInitiationDue string `json:"recall_initiation_date"`
}

// clearanceResponse mirrors /device/510k.json.
type clearanceResponse struct {
	Results []clearanceResult `json:"results"`
}

type clearanceResult struct {
	Applicant    string `json:"applicant"`
	DeviceName   string `json:"device_name"`
	DecisionDate string `json:"decision_date"`
	DecisionCode string `json:"decision_code"`
	KNumber      string `json:"k_number"`
}

// parseFDADate accepts the two date encodings openFDA uses.
func parseFDADate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("20060102", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// rangeQuery formats an openFDA date range clause.
func rangeQuery(field string, from, to time.Time) string {
	return fmt.Sprintf("%s:[%s+TO+%s]", field, from.Format("20060102"), to.Format("20060102"))
}

// endpoint builds a full openFDA URL. The search parameter is pre-encoded
// openFDA syntax, so it is appended verbatim.
func (s *Scanner) endpoint(path, search string, limit int) string {
	u := fmt.Sprintf("%s%s?search=%s&limit=%d", s.baseURL, path, search, limit)
	if s.apiKey != "" {
		u += "&api_key=" + url.QueryEscape(s.apiKey)
	}
	return u
}

// truncate shortens long upstream descriptions for titles.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}
