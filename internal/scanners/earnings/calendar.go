package earnings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// Scan pulls confirmed earnings dates for the look-ahead window.
func (s *Scanner) Scan(ctx context.Context) ([]contracts.RawRecord, error) {
	now := time.Now()
	return s.fetchCalendar(ctx, now, now.Add(lookAhead), "")
}

// ScanTicker pulls upcoming earnings for one ticker.
func (s *Scanner) ScanTicker(ctx context.Context, ticker string) ([]contracts.RawRecord, error) {
	now := time.Now()

	records, err := s.fetchCalendar(ctx, now, now.Add(lookAhead*4), ticker)
	if err != nil {
		return nil, err
	}

	// The symbol filter is upstream's; keep our own guard against loose
	// matching.
	filtered := records[:0]
	for _, rec := range records {
		if rec.Ticker == ticker {
			filtered = append(filtered, rec)
		}
	}

	return filtered, nil
}

// fetchCalendar queries the calendar API and maps confirmed entries onto
// raw records.
func (s *Scanner) fetchCalendar(ctx context.Context, from, to time.Time, symbol string) ([]contracts.RawRecord, error) {
	resp, err := s.httpClient.Get(ctx, s.endpoint(from, to, symbol))
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var calendar calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&calendar); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	var records []contracts.RawRecord
	var skipped int

	for _, entry := range calendar.Earnings {
		if !entry.Confirmed || !contracts.ValidTicker(entry.Ticker) {
			skipped++
			continue
		}

		day, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			skipped++
			continue
		}

		records = append(records, contracts.RawRecord{
			Ticker:      entry.Ticker,
			CompanyName: entry.Company,
			EventType:   contracts.EventEarnings,
			Title:       entryTitle(entry),
			Description: entryDescription(entry),
			EventDate:   day,
			InfoTier:    contracts.TierSecondary,
			InfoSubtype: entry.Time,
		})
	}

	if skipped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"kept":    len(records),
			"skipped": skipped,
		}).Debug("Earnings calendar entries filtered")
	}

	return records, nil
}

// entryTitle composes the record title from the quarter and session.
func entryTitle(entry calendarEntry) string {
	title := "Earnings"
	if entry.Quarter != "" {
		title = entry.Quarter + " earnings"
	}
	if label := sessionLabel(entry.Time); label != "" {
		title += " (" + label + ")"
	}
	return title
}

// entryDescription carries the consensus estimate when the calendar has one.
func entryDescription(entry calendarEntry) string {
	if entry.EPSEstimate == nil {
		return ""
	}
	return fmt.Sprintf("Consensus EPS estimate %.2f", *entry.EPSEstimate)
}
