package presswire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// release is one parsed listing card.
type release struct {
	title     string
	summary   string
	href      string
	published time.Time
}

// Scan pulls the latest listing page and keeps the releases that classify
// onto the taxonomy and carry a ticker.
func (s *Scanner) Scan(ctx context.Context) ([]contracts.RawRecord, error) {
	listURL := fmt.Sprintf("%s/news-releases/news-releases-list/?page=1&pagesize=%d", s.baseURL, listPageSize)

	releases, err := s.fetchListing(ctx, listURL)
	if err != nil {
		return nil, err
	}

	records, skipped := s.toRecords(releases)

	s.logger.WithFields(map[string]interface{}{
		"fetched": len(releases),
		"kept":    len(records),
		"skipped": skipped,
	}).Debug("Press release sweep parsed")

	return records, nil
}

// ScanTicker searches the wire for one ticker. The keyword search is loose,
// so results are re-filtered on the extracted ticker.
func (s *Scanner) ScanTicker(ctx context.Context, ticker string) ([]contracts.RawRecord, error) {
	searchURL := fmt.Sprintf("%s/search/news/?keyword=%s&pagesize=%d", s.baseURL, url.QueryEscape(ticker), listPageSize)

	releases, err := s.fetchListing(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	records, _ := s.toRecords(releases)

	filtered := records[:0]
	for _, rec := range records {
		if rec.Ticker == ticker {
			filtered = append(filtered, rec)
		}
	}

	return filtered, nil
}

// toRecords classifies releases and extracts tickers, dropping the ones
// that resolve to nothing.
func (s *Scanner) toRecords(releases []release) ([]contracts.RawRecord, int) {
	var records []contracts.RawRecord
	var skipped int

	for _, rel := range releases {
		eventType, keyword, ok := classifyHeadline(rel.title)
		if !ok {
			skipped++
			continue
		}

		ticker, company, ok := extractTicker(rel.title + " " + rel.summary)
		if !ok {
			skipped++
			continue
		}

		records = append(records, contracts.RawRecord{
			Ticker:      ticker,
			CompanyName: company,
			EventType:   eventType,
			Title:       rel.title,
			Description: rel.summary,
			EventDate:   rel.published,
			URL:         s.absoluteURL(rel.href),
			InfoTier:    contracts.TierSecondary,
			InfoSubtype: keyword,
		})
	}

	return records, skipped
}

// fetchListing downloads one listing page and parses its release cards.
func (s *Scanner) fetchListing(ctx context.Context, listURL string) ([]release, error) {
	resp, err := s.httpClient.Get(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read listing body: %w", err)
	}

	return parseListing(string(body), time.Now())
}

// parseListing extracts release cards from the listing HTML. Each card is
// an anchor holding the headline, a timestamp in <small>, and a summary
// paragraph.
func parseListing(html string, now time.Time) ([]release, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing HTML: %w", err)
	}

	var releases []release

	doc.Find("a.newsreleaseconsolidatelink").Each(func(i int, sel *goquery.Selection) {
		h3 := sel.Find("h3").First()
		stamp := strings.TrimSpace(h3.Find("small").Text())
		title := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h3.Text()), stamp))
		if title == "" {
			return
		}

		href, _ := sel.Attr("href")

		releases = append(releases, release{
			title:     title,
			summary:   strings.TrimSpace(sel.Find("p").First().Text()),
			href:      href,
			published: parseListTime(stamp, now),
		})
	})

	return releases, nil
}
