package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// Scan sweeps recent filings for every active company in the directory.
// Companies are fetched concurrently under the shared rate limiter; records
// keep upstream order within each company and directory order across them.
// A single company's failure is logged and skipped, not fatal.
func (s *Scanner) Scan(ctx context.Context) ([]contracts.RawRecord, error) {
	companies, err := s.companies.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}

	since := time.Now().Add(-sweepWindow)
	results := make([][]contracts.RawRecord, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for i, company := range companies {
		if company.CIK == "" {
			continue
		}
		i, company := i, company
		g.Go(func() error {
			records, err := s.fetchCompany(gctx, company, since)
			if err != nil {
				s.logger.WithError(err).WithField("ticker", company.Ticker).
					Warn("EDGAR company fetch failed, skipping")
				return nil
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []contracts.RawRecord
	for _, records := range results {
		all = append(all, records...)
	}

	s.logger.WithFields(map[string]interface{}{
		"companies": len(companies),
		"records":   len(all),
	}).Debug("EDGAR sweep finished")

	return all, nil
}

// ScanTicker fetches recent filings for a single ticker.
func (s *Scanner) ScanTicker(ctx context.Context, ticker string) ([]contracts.RawRecord, error) {
	company, err := s.companies.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("resolve ticker %s: %w", ticker, err)
	}
	if company == nil || company.CIK == "" {
		return nil, fmt.Errorf("ticker %s has no registered CIK", ticker)
	}

	since := time.Now().Add(-tickerWindow)
	return s.fetchCompany(ctx, company, since)
}

// fetchCompany pulls the submissions JSON for one company and maps filings
// newer than since onto raw records.
func (s *Scanner) fetchCompany(ctx context.Context, company *contracts.Company, since time.Time) ([]contracts.RawRecord, error) {
	resp, err := s.fetchSubmissions(ctx, company.CIK)
	if err != nil {
		return nil, err
	}

	// Backfill a missing directory name from the registrant record.
	if company.Name == "" && resp.Name != "" {
		enriched := *company
		enriched.Name = resp.Name
		if err := s.companies.Upsert(ctx, &enriched); err != nil {
			s.logger.WithError(err).WithField("ticker", company.Ticker).
				Debug("directory name backfill failed")
		}
	}

	recent := resp.Filings.Recent
	var records []contracts.RawRecord

	for i := range recent.AccessionNumber {
		if i >= len(recent.Form) || i >= len(recent.FilingDate) {
			break
		}

		eventType, ok := formEventType(recent.Form[i])
		if !ok {
			continue
		}

		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			s.logger.WithField("date", recent.FilingDate[i]).
				Debug("unparseable filing date, skipping")
			continue
		}
		if filedAt.Before(since) {
			continue
		}

		var doc, desc, items string
		if i < len(recent.PrimaryDocument) {
			doc = recent.PrimaryDocument[i]
		}
		if i < len(recent.PrimaryDocDesc) {
			desc = recent.PrimaryDocDesc[i]
		}
		if i < len(recent.Items) {
			items = recent.Items[i]
		}

		records = append(records, contracts.RawRecord{
			Ticker:      company.Ticker,
			CompanyName: resp.Name,
			EventType:   eventType,
			Title:       filingTitle(recent.Form[i], desc),
			Description: items,
			EventDate:   filedAt,
			URL:         filingURL(company.CIK, recent.AccessionNumber[i], doc),
			InfoTier:    contracts.TierPrimary,
			InfoSubtype: recent.Form[i],
		})
	}

	return records, nil
}

// fetchSubmissions performs the rate-limited submissions API call. The
// request is built by hand because the SEC fair-use policy requires the
// declared User-Agent on every call.
func (s *Scanner) fetchSubmissions(ctx context.Context, cik string) (*submissionsResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/submissions/CIK%s.json", s.baseURL, padCIK(cik))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result submissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
