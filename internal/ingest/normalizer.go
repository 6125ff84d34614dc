package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// RejectError explains why a raw record cannot become a canonical event.
// A rejection is a data-quality verdict on the record, not a pipeline
// failure.
type RejectError struct {
	Source string
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("record from %s rejected: %s", e.Source, e.Reason)
}

// Normalizer maps raw scanner records onto the canonical event shape,
// resolving tickers and sectors against the company directory.
type Normalizer struct {
	companies contracts.CompanyRepository
	logger    *logger.Logger
}

// NewNormalizer creates a normalizer backed by the company directory.
func NewNormalizer(companies contracts.CompanyRepository, log *logger.Logger) *Normalizer {
	return &Normalizer{
		companies: companies,
		logger:    log.WithField("module", "normalizer"),
	}
}

// Normalize validates and resolves one raw record. A *RejectError means the
// record is unusable; any other error is an infrastructure failure.
func (n *Normalizer) Normalize(ctx context.Context, raw contracts.RawRecord, source string) (*contracts.Event, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw.Ticker))
	companyName := strings.TrimSpace(raw.CompanyName)
	sector := ""

	// Name-keyed upstreams (openFDA) leave the ticker empty.
	if ticker == "" && companyName != "" {
		company, err := n.companies.FindByName(ctx, companyName)
		if err != nil {
			return nil, fmt.Errorf("resolve company name %q: %w", companyName, err)
		}
		if company != nil {
			ticker = company.Ticker
			sector = company.Sector
		}
	}

	if ticker == "" {
		return nil, &RejectError{Source: source, Reason: "no resolvable ticker"}
	}
	if !contracts.ValidTicker(ticker) {
		return nil, &RejectError{Source: source, Reason: fmt.Sprintf("malformed ticker %q", ticker)}
	}
	if raw.EventDate.IsZero() {
		return nil, &RejectError{Source: source, Reason: "missing event date"}
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return nil, &RejectError{Source: source, Reason: "empty title"}
	}
	if !contracts.KnownEventType(raw.EventType) {
		return nil, &RejectError{Source: source, Reason: fmt.Sprintf("unknown event type %q", raw.EventType)}
	}

	// Directory backfill for sector and display name.
	if sector == "" || companyName == "" {
		company, err := n.companies.GetByTicker(ctx, ticker)
		if err != nil {
			n.logger.WithError(err).WithField("ticker", ticker).Warn("Directory lookup failed, continuing without backfill")
		} else if company != nil {
			if sector == "" {
				sector = company.Sector
			}
			if companyName == "" {
				companyName = company.Name
			}
		}
	}

	tier := raw.InfoTier
	if tier != contracts.TierPrimary && tier != contracts.TierSecondary {
		tier = contracts.TierSecondary
	}

	return &contracts.Event{
		Fingerprint: Fingerprint(ticker, raw.EventType, title, raw.EventDate),
		Ticker:      ticker,
		CompanyName: companyName,
		EventType:   raw.EventType,
		Title:       title,
		Description: strings.TrimSpace(raw.Description),
		EventDate:   raw.EventDate,
		Source:      source,
		SourceURL:   raw.URL,
		Sector:      sector,
		InfoTier:    tier,
		InfoSubtype: raw.InfoSubtype,
	}, nil
}
