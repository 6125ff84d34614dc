package fda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// Scan sweeps approvals, recalls, and clearances over the trailing window.
// Each endpoint fails independently; a partial sweep is still useful and the
// dedup store absorbs overlap with the next run.
func (s *Scanner) Scan(ctx context.Context) ([]contracts.RawRecord, error) {
	to := time.Now()
	from := to.Add(-scanWindow)

	var all []contracts.RawRecord
	var failures int

	approvals, err := s.fetchApprovals(ctx, from, to, "")
	if err != nil {
		s.logger.WithError(err).Warn("FDA approvals fetch failed")
		failures++
	} else {
		all = append(all, approvals...)
	}

	recalls, err := s.fetchRecalls(ctx, from, to, "")
	if err != nil {
		s.logger.WithError(err).Warn("FDA recalls fetch failed")
		failures++
	} else {
		all = append(all, recalls...)
	}

	clearances, err := s.fetchClearances(ctx, from, to, "")
	if err != nil {
		s.logger.WithError(err).Warn("FDA clearances fetch failed")
		failures++
	} else {
		all = append(all, clearances...)
	}

	if failures == 3 {
		return nil, fmt.Errorf("all FDA endpoints failed")
	}

	return all, nil
}

// ScanTicker fetches FDA actions for one ticker by searching on the
// directory's company name.
func (s *Scanner) ScanTicker(ctx context.Context, ticker string) ([]contracts.RawRecord, error) {
	company, err := s.companies.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("resolve ticker %s: %w", ticker, err)
	}
	if company == nil || company.Name == "" {
		return nil, fmt.Errorf("ticker %s has no directory name to search FDA records", ticker)
	}

	to := time.Now()
	from := to.Add(-scanWindow * 4)

	var all []contracts.RawRecord

	approvals, err := s.fetchApprovals(ctx, from, to, company.Name)
	if err != nil {
		return nil, err
	}
	all = append(all, approvals...)

	recalls, err := s.fetchRecalls(ctx, from, to, company.Name)
	if err != nil {
		return nil, err
	}
	all = append(all, recalls...)

	clearances, err := s.fetchClearances(ctx, from, to, company.Name)
	if err != nil {
		return nil, err
	}
	all = append(all, clearances...)

	// openFDA knows firms, not tickers; stamp the requested ticker so
	// normalization does not depend on a name match.
	for i := range all {
		all[i].Ticker = ticker
	}

	return all, nil
}

// fetchApprovals maps approved drugsfda submissions onto raw records.
func (s *Scanner) fetchApprovals(ctx context.Context, from, to time.Time, firm string) ([]contracts.RawRecord, error) {
	search := rangeQuery("submissions.submission_status_date", from, to)
	if firm != "" {
		search += "+AND+sponsor_name:" + quoteTerm(firm)
	}

	var resp approvalsResponse
	if err := s.getJSON(ctx, s.endpoint("/drug/drugsfda.json", search, 100), &resp); err != nil {
		return nil, fmt.Errorf("fetch approvals: %w", err)
	}

	var records []contracts.RawRecord
	for _, result := range resp.Results {
		for _, sub := range result.Submissions {
			if sub.SubmissionStatus != "AP" {
				continue
			}

			statusDate, err := parseFDADate(sub.SubmissionStatusDate)
			if err != nil || statusDate.Before(from) || statusDate.After(to) {
				continue
			}

			brand := result.ApplicationNumber
			if len(result.Products) > 0 && result.Products[0].BrandName != "" {
				brand = result.Products[0].BrandName
			}

			records = append(records, contracts.RawRecord{
				CompanyName: result.SponsorName,
				EventType:   contracts.EventFDAApproval,
				Title:       "FDA approval: " + brand,
				Description: result.ApplicationNumber,
				EventDate:   statusDate,
				InfoTier:    contracts.TierPrimary,
				InfoSubtype: sub.ReviewPriority,
			})
		}
	}

	return records, nil
}

// fetchRecalls maps drug enforcement reports onto raw records.
func (s *Scanner) fetchRecalls(ctx context.Context, from, to time.Time, firm string) ([]contracts.RawRecord, error) {
	search := rangeQuery("recall_initiation_date", from, to)
	if firm != "" {
		search += "+AND+recalling_firm:" + quoteTerm(firm)
	}

	var resp enforcementResponse
	if err := s.getJSON(ctx, s.endpoint("/drug/enforcement.json", search, 100), &resp); err != nil {
		return nil, fmt.Errorf("fetch recalls: %w", err)
	}

	var records []contracts.RawRecord
	for _, result := range resp.Results {
		initiated, err := parseFDADate(result.RecallInitiationDue)
		if err != nil {
			continue
		}

		records = append(records, contracts.RawRecord{
			CompanyName: result.RecallingFirm,
			EventType:   contracts.EventFDARecall,
			Title:       fmt.Sprintf("Recall (%s): %s", result.Classification, truncate(result.ProductDescription, 120)),
			Description: result.ReasonForRecall,
			EventDate:   initiated,
			InfoTier:    contracts.TierPrimary,
			InfoSubtype: result.Classification,
		})
	}

	return records, nil
}

// fetchClearances maps 510(k) decisions onto raw records.
func (s *Scanner) fetchClearances(ctx context.Context, from, to time.Time, firm string) ([]contracts.RawRecord, error) {
	search := rangeQuery("decision_date", from, to)
	if firm != "" {
		search += "+AND+applicant:" + quoteTerm(firm)
	}

	var resp clearanceResponse
	if err := s.getJSON(ctx, s.endpoint("/device/510k.json", search, 100), &resp); err != nil {
		return nil, fmt.Errorf("fetch clearances: %w", err)
	}

	var records []contracts.RawRecord
	for _, result := range resp.Results {
		decided, err := parseFDADate(result.DecisionDate)
		if err != nil {
			continue
		}

		records = append(records, contracts.RawRecord{
			CompanyName: result.Applicant,
			EventType:   contracts.EventFDAClearance,
			Title:       "510(k) clearance: " + truncate(result.DeviceName, 120),
			Description: result.KNumber,
			EventDate:   decided,
			InfoTier:    contracts.TierPrimary,
			InfoSubtype: result.DecisionCode,
		})
	}

	return records, nil
}

// getJSON performs a GET and decodes the JSON body. openFDA answers 404 for
// an empty result set; that is "no data", not an error.
func (s *Scanner) getJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := s.httpClient.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// quoteTerm encodes a multi-word search term for openFDA's query syntax.
func quoteTerm(term string) string {
	return `"` + strings.ReplaceAll(term, " ", "+") + `"`
}
